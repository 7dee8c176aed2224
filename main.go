package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"seo_article_studio/config"
	"seo_article_studio/genai"
	"seo_article_studio/pipeline"
	"seo_article_studio/server"
	"seo_article_studio/store"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start the web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	topic := flag.String("topic", "", "run the pipeline once for this topic or URL")
	verbose := flag.Bool("v", false, "enable info logs")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	text, img, err := buildClients(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serve {
		srv, err := server.New(text, img, st, cfg, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Info().Str("addr", listen).Msg("starting web server")
		e := srv.Echo()

		// Drain pending autosaves on SIGINT/SIGTERM; a kill inside the
		// debounce window must not drop edits.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutCtx); err != nil {
				log.Warn().Err(err).Msg("server shutdown failed")
			}
		}()
		err = e.Start(listen)
		srv.Close(context.Background())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "--topic is required (or use --serve)")
		os.Exit(1)
	}
	if err := runOnce(context.Background(), *topic, cfg, text, img, st, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runOnce drives one full pass — research, outline, streamed generation,
// analysis, hero image — and leaves the saved draft id on stdout.
func runOnce(ctx context.Context, topic string, cfg config.Config, text genai.TextClient, img genai.ImageClient, st store.Store, log zerolog.Logger) error {
	ctrl := pipeline.NewController(pipeline.Deps{
		Researcher: pipeline.NewResearcher(text, log),
		Outliner:   pipeline.NewOutliner(text, log),
		Generator:  pipeline.NewGenerator(text, log),
		Analyzer:   pipeline.NewAnalyzer(text, log),
		Optimizer:  pipeline.NewOptimizer(text, log),
		Images:     pipeline.NewImageGen(img, log),
	}, log)
	saver := store.NewAutosaver(st, ctrl.Snapshot, time.Duration(cfg.AutosaveDebounceMS)*time.Millisecond, log)
	ctrl.AttachSaver(saver)

	brief, err := ctrl.CreateBrief(ctx, topic)
	if err != nil {
		return err
	}
	log.Info().Str("draft", brief.ID).Strs("keywords", brief.TargetKeywords).Msg("brief ready")

	outline, err := ctrl.BuildOutline(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("title", outline.Title).Int("sections", len(outline.Sections)).Msg("outline ready")

	events := pipeline.StreamEvents{
		OnFragment: func(text string) { fmt.Print(text) },
		OnDone:     func(string) { fmt.Println() },
	}
	if err := ctrl.Generate(ctx, events); err != nil {
		return err
	}
	ctrl.WaitEnrichment()
	if err := saver.Close(ctx); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	score := 0
	if snap.Analysis != nil {
		score = snap.Analysis.Score
	}
	fmt.Printf("draft %s saved (state=%s score=%d citations=%d)\n", snap.ID, snap.State, score, len(snap.Citations))
	return nil
}

func buildClients(cfg config.Config) (genai.TextClient, genai.ImageClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	settings := genai.Settings{
		Model:      cfg.LLM.Model,
		ImageModel: cfg.LLM.ImageModel,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
	}
	switch cfg.LLM.Provider {
	case "openai":
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API; a base_url is required.
		if settings.BaseURL == "" {
			return nil, nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return nil, nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
	text, err := genai.NewOpenAIText(settings)
	if err != nil {
		return nil, nil, err
	}
	img, err := genai.NewOpenAIImage(settings)
	if err != nil {
		return nil, nil, err
	}
	return text, img, nil
}
