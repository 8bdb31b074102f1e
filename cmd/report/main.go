// Command report builds one daily, weekly or monthly report and prints or
// sends it. It reads the same environment as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ddtips/dashboard/internal/config"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/notify"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/scheduler"
	"github.com/ddtips/dashboard/internal/store"
)

var (
	kindFlag = flag.String("kind", "daily", "Report kind: daily, weekly or monthly")
	atFlag   = flag.String("at", "", "Reference day YYYY-MM-DD (default today); the report covers the period before it")
	send     = flag.Bool("send", false, "Send the report to Telegram instead of printing it")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	kind, err := report.ParseKind(*kindFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	loc := cfg.Location()
	at := time.Now().In(loc)
	if *atFlag != "" {
		if at, err = time.ParseInLocation(model.DateLayout, *atFlag, loc); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -at %q: %v\n", *atFlag, err)
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("store initialization failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	var notifier notify.Notifier = notify.LogNotifier{}
	if *send {
		if !cfg.TelegramEnabled() {
			slog.Error("-send needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
			os.Exit(1)
		}
		if notifier, err = notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID); err != nil {
			slog.Error("telegram initialization failed", "err", err)
			os.Exit(1)
		}
	}

	sched := scheduler.New(st, notifier, loc)

	if !*send {
		rep, err := sched.Generate(ctx, kind, at)
		if err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		if rep.Text == "" {
			fmt.Printf("no bets between %s and %s\n", rep.From, rep.To)
			return
		}
		fmt.Println(rep.Text)
		return
	}

	rep, sent, err := sched.RunOnce(ctx, kind, at)
	if err != nil {
		slog.Error("report failed", "err", err)
		os.Exit(1)
	}
	slog.Info("done", "kind", kind, "from", rep.From, "to", rep.To, "sent", sent)
}
