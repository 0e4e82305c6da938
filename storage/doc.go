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

// Package storage defines the persistence interfaces the engine is built
// against: the primary document/chunk record store, the vector index, and
// the knowledge-graph store.
//
// Store clients are constructed objects with explicit lifecycles (open,
// close) and are injected into the pipeline and query engine rather than
// accessed as ambient global state. The storage/badger sub-package provides
// the embedded BadgerDB implementations.
package storage
