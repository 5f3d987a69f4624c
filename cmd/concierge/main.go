// Command concierge is the connected-workspace assistant. It syncs
// Notion pages and Gmail messages into a Qdrant index and answers
// questions about them through a tool-calling chat agent, with HubSpot
// contacts available as a direct tool.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/concierge-hq/concierge/internal/adapters/driven/auth"
	configfile "github.com/concierge-hq/concierge/internal/adapters/driven/config/file"
	openaiembed "github.com/concierge-hq/concierge/internal/adapters/driven/embedding/openai"
	openaillm "github.com/concierge-hq/concierge/internal/adapters/driven/llm/openai"
	"github.com/concierge-hq/concierge/internal/adapters/driven/storage/sqlite"
	qdrantvec "github.com/concierge-hq/concierge/internal/adapters/driven/vector/qdrant"
	"github.com/concierge-hq/concierge/internal/adapters/driving/cli"
	"github.com/concierge-hq/concierge/internal/connectors"
	"github.com/concierge-hq/concierge/internal/connectors/hubspot"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/services"
	"github.com/concierge-hq/concierge/internal/normalisers"
	"github.com/concierge-hq/concierge/internal/normalisers/eml"
	"github.com/concierge-hq/concierge/internal/normalisers/notionpage"
	"github.com/concierge-hq/concierge/internal/postprocessors/chunker"
)

// Provider OAuth token endpoints. Client credentials come from the
// environment (or .env).
const (
	notionTokenURL  = "https://api.notion.com/v1/oauth/token"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	hubspotTokenURL = "https://api.hubapi.com/oauth/v1/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort: a missing .env just means keys come from the
	// environment.
	_ = godotenv.Load()

	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	vectors, err := qdrantvec.NewVectorStore(qdrantvec.Config{
		Host:   cfg.GetString("qdrant.host"),
		Port:   cfg.GetInt("qdrant.port"),
		APIKey: os.Getenv("QDRANT_API_KEY"),
		UseTLS: cfg.GetBool("qdrant.tls"),
	})
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer vectors.Close()

	apiKey := os.Getenv("OPENAI_API_KEY")

	embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey: apiKey,
		Model:  cfg.GetString("openai.embedding_model"),
	})
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	defer embedder.Close()

	chat, err := openaillm.NewChatService(openaillm.Config{
		APIKey: apiKey,
		Model:  cfg.GetString("openai.chat_model"),
	})
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}
	defer chat.Close()

	tokens := auth.NewFactory(store.AccountStore(), auth.Endpoints{
		domain.ProviderNotion: {
			TokenURL:     notionTokenURL,
			ClientID:     os.Getenv("NOTION_CLIENT_ID"),
			ClientSecret: os.Getenv("NOTION_CLIENT_SECRET"),
		},
		domain.ProviderGmail: {
			TokenURL:     googleTokenURL,
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		domain.ProviderHubSpot: {
			TokenURL:     hubspotTokenURL,
			ClientID:     os.Getenv("HUBSPOT_CLIENT_ID"),
			ClientSecret: os.Getenv("HUBSPOT_CLIENT_SECRET"),
		},
	})

	extractors := normalisers.NewRegistry()
	extractors.Register(notionpage.New())
	extractors.Register(eml.New())

	var chunkOpts []chunker.Option
	if size := cfg.GetInt("chunker.size"); size > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("chunker.overlap"); overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(overlap))
	}

	engine := services.NewSyncEngine(
		store.AccountStore(),
		store.LedgerStore(),
		vectors,
		embedder,
		connectors.NewFactory(tokens),
		extractors,
		chunker.New(chunkOpts...),
		chunker.NewWholeText(),
	)

	queue := services.NewSyncQueue(engine, cfg.GetInt("sync.workers"), cfg.GetInt("sync.queue_depth"))
	defer stopQueue(queue)

	toolset := services.NewToolset(vectors, embedder, hubspot.New(), tokens)
	agent := services.NewAgent(chat, toolset, store.MessageStore())

	cli.SetServices(cli.Services{
		Sync:     engine,
		Queue:    queue,
		Agent:    agent,
		Accounts: store.AccountStore(),
		Tools:    toolset,
	})

	return cli.Execute()
}

// stopQueue drains the background queue with a hard upper bound so a
// hung upstream call cannot stall process exit forever.
func stopQueue(queue *services.SyncQueue) {
	done := make(chan struct{})
	go func() {
		queue.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
}
