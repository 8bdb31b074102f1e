// Command valuebot prints or sends the over/under 2.5 value picks for the
// next few days. Defaults come from BOT_LOOKAHEAD_DAYS, BOT_MIN_EDGE_PCT and
// BOT_MAX_PICKS.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ddtips/dashboard/internal/config"
	"github.com/ddtips/dashboard/internal/notify"
	"github.com/ddtips/dashboard/internal/scheduler"
	"github.com/ddtips/dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	params := cfg.ValueBot()
	flag.IntVar(&params.Days, "days", params.Days, "Look-ahead window in days")
	flag.Float64Var(&params.MinEdgePct, "min-edge", params.MinEdgePct, "Minimum value edge in percent")
	flag.IntVar(&params.Limit, "limit", params.Limit, "Maximum number of picks")
	send := flag.Bool("send", false, "Send the message to Telegram")
	asJSON := flag.Bool("json", false, "Print the picks as JSON instead of the message")
	flag.Parse()

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

	sched := scheduler.New(st, notifier, cfg.Location())
	now := time.Now()

	if *asJSON {
		res, err := sched.PreviewValueBot(ctx, params, now)
		if err != nil {
			slog.Error("value bot failed", "err", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			slog.Error("encode picks", "err", err)
			os.Exit(1)
		}
		return
	}

	if !*send {
		res, err := sched.PreviewValueBot(ctx, params, now)
		if err != nil {
			slog.Error("value bot failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(res.Text)
		return
	}

	res, err := sched.RunValueBot(ctx, params, now)
	if err != nil {
		fmt.Println(res.Text)
		slog.Error("telegram send failed", "err", err)
		os.Exit(2)
	}
	fmt.Println(res.Text)
	slog.Info("telegram sent", "picks", res.Count)
}
