// FinCRAG - Corrective RAG for Stock Questions
//
// FinCRAG answers natural-language questions about a single stock. It loads the
// fundamentals and recent news of a ticker into a small vector index, grades
// what it retrieves for each question, and falls back to a web search when the
// local documents are not good enough before the answer is generated.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/smallnest/fincrag/cmd/fincrag@latest
//
// Set the credentials (a .env file in the working directory is read too):
//
//	export OPENAI_API_KEY=sk-...
//	export NEWSAPI_API_KEY=...
//	export TAVILY_API_KEY=...   # optional, enables web search
//
// Then start the shell:
//
//	$ fincrag
//	CRAG > setup AAPL
//	AAPL > What is the P/E ratio?
//
// or ask a single question:
//
//	fincrag ask AAPL "Why did the stock move today?"
//
// # The Pipeline
//
// Every question runs through the same state machine:
//
//	retrieve -> assess -> (web_search unless correct) -> generate -> done
//
//   - retrieve: top 5 documents from the session's vector store
//   - assess: an LLM grades the documents as correct, ambiguous or incorrect
//   - web_search: ambiguous and incorrect documents are supplemented from the web
//   - generate: the answer is written from the assembled context
//
// # Package Structure
//
// crag/
// The pipeline itself: quality grading, routing, context assembly, the
// orchestrator, tracing and the run journal hooks.
//
//	orch, _ := crag.New(crag.Config{
//		Store:     store,
//		Assessor:  crag.NewLLMAssessor(llm),
//		Generator: crag.NewLLMGenerator(llm),
//		Searcher:  searcher, // nil disables web search
//	})
//	state, _ := orch.Run(ctx, "What is the P/E ratio?", "AAPL")
//	fmt.Println(state.Answer)
//
// datasource/
// Market data: Yahoo Finance fundamentals and price history, news from NewsAPI
// or RSS, and the Fetcher that turns both into the session's documents.
//
// session/
// The ticker session manager. Setup builds a fresh index for a ticker and
// swaps it in atomically; Query runs the pipeline against the loaded session.
//
// rag/
// Document types, provenance, and adapters to langchaingo embedders and
// vector stores (in-memory or Chroma).
//
// tool/
// Web search providers: Tavily and Brave.
//
// llms/openaisdk/
// An llms.Model backed by the go-openai client.
//
// store/
// Run journal persistence: memory, file, SQLite, PostgreSQL and Redis.
//
// config/
// Configuration from a YAML file, FINCRAG_* environment variables and .env.
//
// log/
// Leveled logging on top of golog.
//
// # Configuration
//
// The most common settings:
//
//   - OPENAI_API_KEY: LLM and embedding access (required)
//   - NEWSAPI_API_KEY: news search (required unless news.provider is rss)
//   - TAVILY_API_KEY / BRAVE_API_KEY: web search (optional)
//   - FINCRAG_JOURNAL_DRIVER / FINCRAG_JOURNAL_DSN: where runs are journaled
//   - FINCRAG_LOG_LEVEL: debug, info, warn or error
//
// # License
//
// This project is licensed under the MIT License - see the LICENSE file for details.
package fincrag // import "github.com/smallnest/fincrag"
