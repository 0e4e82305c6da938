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


// Package query provides hybrid retrieval-augmented answering.
//
// The Engine type combines two retrieval sources that run concurrently:
//   - Semantic search over chunk embeddings in a vector index
//   - Structured fact lookup in a knowledge graph
//
// Results from both sources are fused into a labeled context block, an
// answer is generated from it, and the response carries a heuristic
// confidence score plus provenance for every retrieved result. A failing
// source degrades to empty results; only both sources failing fails the
// query.
package query
