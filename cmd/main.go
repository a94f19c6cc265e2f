package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"manual-rag/internal/chromemdb"
	"manual-rag/internal/config"
	"manual-rag/internal/db"
	"manual-rag/internal/embedding"
	"manual-rag/internal/helper"
	"manual-rag/internal/llmservice"
	"manual-rag/internal/models"
	"manual-rag/internal/parser"
	"manual-rag/internal/rag"
	"manual-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

var demoQueries = []string{
	"What is this manual about?",
	"How do I perform basic maintenance?",
	"What are the safety precautions?",
	"Tell me about troubleshooting steps",
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the manual to ingest")
	query := flag.String("query", "", "Answer a single question and exit")
	demo := flag.Bool("demo", false, "Run the predefined demo questions")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk only, do not touch the index")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either a manual using the -file flag or a question using the -query flag, but not both")
	}

	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestManual(ctx, *configPath, *filePath, *dryRun)
	case *query != "":
		runQuery(ctx, *configPath, *query)
	case *demo:
		runDemo(ctx, *configPath)
	default:
		runInteractive(ctx, *configPath)
	}
}

func mustConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")
	return cfg
}

// mustStore wires the configured index backend behind the store adapter. The
// chromem manager is returned as well so ingest can export in-memory
// collections; it is nil for the postgres backend.
func mustStore(ctx context.Context, cfg *config.Config) (*store.Store, *chromemdb.VectorDBManager) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	var index store.VectorIndex
	var manager *chromemdb.VectorDBManager
	switch cfg.Store.Backend {
	case "postgres":
		pgIndex := db.NewIndex(db.ConnectDB(&cfg.Database))
		if err := pgIndex.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		index = pgIndex
	default:
		manager, err = chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory, cfg.RAG.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating vector database manager")
		}
		index = manager
	}

	return store.New(embedder, index), manager
}

func mustRAG(cfg *config.Config, st *store.Store) *rag.RAG {
	llm, err := llmservice.NewClient(&cfg.ChatLLM, &cfg.RAG)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}
	return rag.NewRAG(st, llm, cfg.RAG.TopK)
}

func ingestManual(ctx context.Context, configPath, filePath string, dryRun bool) {
	cfg := mustConfig(configPath)

	runID, err := helper.GenerateRunID()
	if err != nil {
		log.Warn().Err(err).Msg("Could not generate run id")
	}
	logger := log.With().Str("run_id", runID).Logger()

	pages, err := parser.ExtractPages(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error parsing manual")
	}
	logger.Info().Int("pages", len(pages)).Str("file", filePath).Msg("Parsed manual")

	chunker := parser.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.OverlapWords)
	chunks := chunker.Extract(filePath, pages)
	if len(chunks) == 0 {
		logger.Fatal().Err(models.ErrEmptyExtraction).Msg("The manual may be scanned, encrypted, or image-only")
	}

	printExtractionStats(chunks, len(pages))

	if dryRun {
		sample := chunks
		if len(sample) > 3 {
			sample = sample[:3]
		}
		fmt.Println("\nSample chunks:")
		helper.PrettyPrint(sample)
		return
	}

	st, manager := mustStore(ctx, cfg)

	// Re-ingestion replaces the collection wholesale; chunk ids are only
	// stable within one run.
	if err := st.Clear(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Error clearing collection")
	}
	if err := st.Ingest(ctx, chunks); err != nil {
		logger.Fatal().Err(err).Msg("Error ingesting chunks")
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error verifying storage")
	}
	if stats.TotalChunks != len(chunks) {
		logger.Warn().Int("expected", len(chunks)).Int("stored", stats.TotalChunks).Msg("Stored chunk count mismatch")
	}

	if manager != nil && cfg.Store.InMemory && cfg.RAG.EncryptionKey != "" {
		if err := manager.Export(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Error exporting collection")
		}
	}

	fmt.Printf("\nIngestion complete: %d chunks across %d chapters\n", stats.TotalChunks, stats.UniqueChapters)
}

func printExtractionStats(chunks []models.Chunk, totalPages int) {
	chapterCounts := make(map[string]int)
	totalChars := 0
	for _, c := range chunks {
		chapterCounts[c.Metadata.Chapter]++
		totalChars += len(c.Text)
	}

	fmt.Printf("\nExtraction statistics:\n")
	fmt.Printf("  Pages:              %d\n", totalPages)
	fmt.Printf("  Chunks:             %d\n", len(chunks))
	fmt.Printf("  Unique chapters:    %d\n", len(chapterCounts))
	fmt.Printf("  Average chunk size: %d chars\n", totalChars/len(chunks))

	chapters := make([]string, 0, len(chapterCounts))
	for ch := range chapterCounts {
		chapters = append(chapters, ch)
	}
	sort.Strings(chapters)
	fmt.Println("\nChapters found:")
	for _, ch := range chapters {
		fmt.Printf("  %s: %d chunks\n", ch, chapterCounts[ch])
	}
}

func runQuery(ctx context.Context, configPath, query string) {
	cfg := mustConfig(configPath)
	st, _ := mustStore(ctx, cfg)
	r := mustRAG(cfg, st)
	requireDocuments(ctx, r)
	answerAndPrint(ctx, r, query)
}

func runDemo(ctx context.Context, configPath string) {
	printBanner()
	fmt.Println("DEMO MODE - running predefined questions")

	cfg := mustConfig(configPath)
	st, _ := mustStore(ctx, cfg)
	r := mustRAG(cfg, st)
	requireDocuments(ctx, r)

	for i, query := range demoQueries {
		fmt.Printf("\n--- Demo question %d/%d ---\n", i+1, len(demoQueries))
		answerAndPrint(ctx, r, query)
	}
	fmt.Println("\nDemo complete.")
}

func runInteractive(ctx context.Context, configPath string) {
	printBanner()

	cfg := mustConfig(configPath)
	st, _ := mustStore(ctx, cfg)
	r := mustRAG(cfg, st)
	stats := requireDocuments(ctx, r)

	fmt.Printf("System status: %d chunks across %d chapters\n", stats.TotalChunks, stats.UniqueChapters)
	fmt.Printf("Chapters: %s\n", previewChapters(stats.Chapters))
	fmt.Println("\nTip: mention a chapter name in your question for filtered search,")
	fmt.Println("e.g. \"How do I fix issues in the Troubleshooting chapter?\"")
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Your question: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Println("Bye.")
			return
		case "help":
			printHelp()
		case "stats":
			current, err := r.Stats(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Could not compute statistics")
				continue
			}
			fmt.Printf("\nTotal chunks:    %d\n", current.TotalChunks)
			fmt.Printf("Unique chapters: %d\n", current.UniqueChapters)
			fmt.Printf("Chapters:        %s\n\n", strings.Join(current.Chapters, ", "))
		default:
			answerAndPrint(ctx, r, input)
		}
	}
}

// requireDocuments aborts when the collection is empty; every query mode
// needs an ingested manual.
func requireDocuments(ctx context.Context, r *rag.RAG) models.Stats {
	stats, err := r.Stats(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading collection statistics")
	}
	if stats.TotalChunks == 0 {
		log.Fatal().Msg("No documents in the vector store; ingest a manual first with -file")
	}
	return stats
}

func answerAndPrint(ctx context.Context, r *rag.RAG, query string) {
	ans, err := r.AnswerQuestion(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("Query failed")
		return
	}

	fmt.Printf("\nQUERY: %s\n", ans.Query)
	if ans.ChapterFilter != "" {
		fmt.Printf("Chapter filter: %s\n", ans.ChapterFilter)
	}

	if len(ans.Sources) > 0 {
		fmt.Println("\nRetrieved sources:")
		for i, src := range ans.Sources {
			fmt.Printf("  %d. Chapter: %q (page %d)\n", i+1, src.Chapter, src.Page)
		}
	} else {
		fmt.Println("\nNo relevant chunks found.")
	}

	fmt.Printf("\nANSWER:\n%s\n", ans.Answer)
	fmt.Printf("\nRetrieval:  %.3fs\n", ans.RetrievalTime.Seconds())
	fmt.Printf("Generation: %.3fs\n", ans.GenerationTime.Seconds())
	fmt.Printf("Total:      %.3fs\n\n", ans.TotalTime.Seconds())
}

func printBanner() {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("  MANUAL RAG - Q&A over a technical manual")
	fmt.Println(strings.Repeat("=", 70))
}

func printHelp() {
	fmt.Println("\nCommands:")
	fmt.Println("  <question>     ask a question about the manual")
	fmt.Println("  stats          show collection statistics")
	fmt.Println("  help           show this help")
	fmt.Println("  quit / exit    leave")
	fmt.Println()
}

func previewChapters(chapters []string) string {
	if len(chapters) <= 5 {
		return strings.Join(chapters, ", ")
	}
	return fmt.Sprintf("%s, ... and %d more", strings.Join(chapters[:5], ", "), len(chapters)-5)
}
