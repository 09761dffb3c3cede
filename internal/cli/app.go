package cli

import (
	"fmt"
	"os"

	"github.com/studybuddy/studybuddy/internal/adapter"
	"github.com/studybuddy/studybuddy/internal/config"
	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/db"
	"github.com/studybuddy/studybuddy/internal/session"
	"github.com/studybuddy/studybuddy/internal/tutor"
)

// app bundles the wiring every command needs: config, the session
// store, and the generation stack for the effective session key.
type app struct {
	cfg       config.GlobalConfig
	database  *db.DB
	store     *session.Store
	tracker   *session.Tracker
	key       string
	llm       adapter.Generator
	tokenizer *studyctx.Tokenizer
	assembler *studyctx.Assembler
	tutor     *tutor.Tutor
}

// newApp opens the session database and builds the generation stack.
// modelOverride beats the configured default provider; an empty
// override keeps it.
func newApp(modelOverride string) (*app, error) {
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, err
	}

	key := cfg.SessionKey
	if sessionKey != "" {
		key = sessionKey
	}
	if key == "" {
		key = "default"
	}

	dbPath, err := config.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	provider := cfg.DefaultModel
	if modelOverride != "" {
		provider = modelOverride
	}
	modelName := ""
	if provider == adapter.ProviderOllama {
		modelName = cfg.Ollama.CompletionModel
	}
	llm, err := adapter.New(provider, modelName, cfg.APIKey(provider), cfg.Ollama.Host)
	if err != nil {
		database.Close()
		return nil, err
	}

	// Token capping is best-effort; without a tokenizer prompts go out
	// uncapped.
	tokenizer, err := studyctx.NewTokenizer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: tokenizer unavailable: %v\n", err)
		tokenizer = nil
	}

	store := session.NewStore(database)
	tracker := session.NewTracker(store, key)
	assembler := studyctx.NewAssembler(
		studyctx.NewCompactor(llm, cfg.Compaction.Threshold, cfg.Compaction.KeepRecent),
	)
	tut := tutor.New(llm, assembler, tokenizer, store, tracker, key, cfg.Context.ChatTokenBudget)

	return &app{
		cfg:       cfg,
		database:  database,
		store:     store,
		tracker:   tracker,
		key:       key,
		llm:       llm,
		tokenizer: tokenizer,
		assembler: assembler,
		tutor:     tut,
	}, nil
}

func (a *app) close() {
	a.database.Close()
}
