package main

import (
	"bufio"
	"context"
	"eduagent/app/client/llm"
	"eduagent/app/client/vecstore"
	"eduagent/app/config"
	"eduagent/app/server"
	"eduagent/app/service/content"
	"eduagent/app/service/question"
	"eduagent/app/service/tutor"
	"eduagent/app/util/mylog"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()

	mylog.Preinit()

	cliMode := flag.Bool("cli", false, "run an interactive console session instead of the HTTP server")
	reindex := flag.Bool("reindex", false, "seed the vector store from the built-in data and exit")
	flag.Parse()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, func(di *do.Injector) (*llm.Client, error) {
		return llm.NewClient(do.MustInvoke[*config.Config](di).OpenAI.Chat), nil
	})
	do.Provide(di, vecstore.NewClient)
	do.Provide(di, content.New)
	do.Provide(di, question.New)
	do.Provide(di, tutor.New)
	do.Provide(di, server.New)

	if *reindex {
		if !cfg.Vector.Enabled {
			log.Fatalf("vector store is disabled in config, nothing to reindex")
		}

		if err := do.MustInvoke[*vecstore.Client](di).Seed(appCtx); err != nil {
			log.Fatalf("reindex failed: %v", err)
		}

		slog.Info("Vector store reindexed")
		return
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	if *cliMode {
		runCLI(appCtx, do.MustInvoke[*tutor.Service](di))
		return
	}

	slog.Info("Service started")

	g, gctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		return do.MustInvoke[*server.Server](di).Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runCLI(ctx context.Context, agent *tutor.Service) {
	fmt.Println("\n=== Education Assistant ===")

	reply, err := agent.Process(ctx, "cli", "")
	if err != nil {
		log.Fatalf("initial greeting failed: %v", err)
	}
	fmt.Println("Assistant:", reply)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("You: ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			fmt.Println("Assistant: Thank you for using the Education Assistant. Goodbye!")
			return
		}

		reply, err := agent.Process(ctx, "cli", input)
		if err != nil {
			fmt.Println("An error occurred:", err)
			continue
		}

		fmt.Println("Assistant:", reply)
	}
}
