// Package crag implements the corrective RAG pipeline that answers questions
// about a financial instrument.
//
// A run is an explicit state machine:
//
//	retrieve -> assess -> generate                  (quality == correct)
//	retrieve -> assess -> web_search -> generate    (ambiguous or incorrect)
//
// Retrieve asks the document store for the top 5 documents. Assess asks a
// language model for a one-word verdict (see ParseQuality). Route is the
// only branch. The web search step never fails the run: a missing searcher
// or a provider error becomes a placeholder in WebResult. Generate builds
// the context with AssembleContext and asks the generator for the answer.
//
// Retrieval, assessment and generation failures end the run with an error
// wrapping ErrRetrieval, ErrAssessment or ErrGeneration.
//
// Example:
//
//	model, _ := openai.New(openai.WithModel("gpt-4o-mini"))
//	o, err := crag.New(crag.Config{
//		Store:     docs,
//		Assessor:  crag.NewLLMAssessor(model),
//		Generator: crag.NewLLMGenerator(model),
//		Searcher:  tool.NewTavilySearch(apiKey),
//	})
//	state, err := o.Run(ctx, "What is the P/E ratio?", "AAPL")
//	fmt.Println(state.Answer, state.Quality, state.UsedWeb())
package crag
