// Package memory implements Aether's long-term memory: a per-user
// append-only log of short text entries, each carrying a fixed-length
// unit-normalized feature vector, retrievable by cosine similarity.
//
// Memories are partitioned by UserID. There are no cross-user queries
// and entries are immutable once appended; retrieval ordering is
// computed at query time, never stored.
//
// Architecture:
//   - Embedder: text-to-vector conversion (hand-rolled feature
//     extractor for local use, ONNX model behind the same interface)
//   - Store: durable per-user collections (one JSON file per user)
//   - Retriever: brute-force top-K cosine ranking with metadata filters
//
// The Embedder is a construction-time dependency of Store and
// Retriever so a real embedding model can replace the feature
// extractor without touching any caller.
package memory
