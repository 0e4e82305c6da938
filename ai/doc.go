// Copyright 2025 AR-Learn
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai defines the abstractions for the externally supplied AI
// capabilities the engine depends on.
//
// Two capabilities are consumed: text embedding (Embedder) and answer
// generation (Generator), aggregated behind Provider for initialization and
// lifecycle management. The ingestion pipeline and query engine depend only
// on these interfaces, never on a concrete service.
//
// Sub-packages:
//
//   - ai/openai: production implementation against OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with injectable behavior
//
// Production constructors (openai.NewProvider and friends) return interface
// types to enforce abstraction. Mock constructors return concrete types so
// tests can inject behavior and assert call counts.
package ai
