// Package embedder generates vector embeddings for documents and queries.
//
// Three providers are supported:
//
//   - openai: the OpenAI embeddings API (requires OPENAI_API_KEY)
//   - ollama: a local Ollama server (OLLAMA_HOST, default localhost:11434)
//   - local: a deterministic token-hash embedding, no external dependencies
//
// Provider selection happens via explicit Config or from the environment:
//
//	emb, err := embedder.NewFromEnv()
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "how does rank fusion work?",
//	})
//
// Embeddings are cached in-process by content hash with LRU eviction, so
// repeated queries and unchanged documents never hit the backend twice.
//
// # Lifecycle
//
// The embedding backend is a process-wide resource. Pool owns it: the
// backend initializes lazily on the first Acquire, concurrent searches share
// the initialized instance, and Close waits for in-flight work before
// tearing it down. Close is safe to call even if the backend was never used.
//
//	pool := embedder.NewPoolFromEnv()
//	defer pool.Close()
//
//	emb, release, err := pool.Acquire()
//	if err != nil { ... }
//	defer release()
package embedder
