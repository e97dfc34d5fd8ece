package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"protestwatch/api/internal/catalog"
	"protestwatch/api/internal/config"
	"protestwatch/api/internal/event"
	"protestwatch/api/internal/localstore"
	"protestwatch/api/internal/opinions"
	"protestwatch/api/internal/reconcile"
	"protestwatch/api/internal/search"
	sig "protestwatch/api/internal/signal"
	"protestwatch/api/internal/watch"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: watch <command> [flags]

commands:
  events    list the reconciled event feed
  report    file a new local report
  opinions  show the opinion wall for an event
  opine     add an opinion to an event
  search    search events
  history   show recent report journal commits
  listen    print change signals and alerts as they arrive`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()

	journal, err := localstore.Open(filepath.Join(cfg.DataDir, "journal"))
	if err != nil {
		log.Fatalf("open report journal: %v", err)
	}

	hub := newHub(cfg)
	defer hub.Close()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}

	ctrl := watch.New(journal, catalog.Events, opinions.New(cfg.APIBaseURL), hub, search.NewService(meiliClient))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "events":
		runEvents(ctrl, os.Args[2:])
	case "report":
		runReport(ctrl, os.Args[2:])
	case "opinions":
		runOpinions(ctx, ctrl, os.Args[2:])
	case "opine":
		runOpine(ctx, ctrl, os.Args[2:])
	case "search":
		runSearch(ctrl, os.Args[2:])
	case "history":
		runHistory(ctrl, os.Args[2:])
	case "listen":
		runListen(ctrl, hub)
	default:
		usage()
	}
}

func newHub(cfg config.Config) sig.Hub {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return sig.NewMemoryHub()
	}
	hub, err := sig.NewRedisHub(cfg.RedisURL)
	if err != nil {
		log.Printf("redis unavailable, signals stay in-process: %v", err)
		return sig.NewMemoryHub()
	}
	return hub
}

func runEvents(ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	status := fs.String("status", "", "only show events with this status")
	_ = fs.Parse(args)

	var view []event.Event
	if *status != "" {
		view = ctrl.EventsByStatus(*status)
	} else {
		view = ctrl.Events()
	}

	now := time.Now()
	for _, e := range view {
		line := fmt.Sprintf("%d  [%s]  %s — %s (%s)", e.ID, e.Status, e.Title, e.Location, e.Date)
		if reported, ok := e.ReportedAt(); ok {
			line += "  reported " + reconcile.RelativeLabel(reported, now)
		}
		fmt.Println(line)
	}
	if *status == "" {
		counts := ctrl.StatusCounts()
		fmt.Printf("\n%d events", len(view))
		for _, s := range []event.Status{event.StatusActive, event.StatusUpcoming, event.StatusEnded, event.StatusReported} {
			if counts[s] > 0 {
				fmt.Printf("  %s:%d", s, counts[s])
			}
		}
		fmt.Println()
	}
}

func runReport(ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	input := watch.ReportInput{}
	fs.StringVar(&input.Title, "title", "", "event title")
	fs.StringVar(&input.Type, "type", "", "event type")
	fs.StringVar(&input.County, "county", "", "county")
	fs.StringVar(&input.Location, "location", "", "location")
	fs.StringVar(&input.Date, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&input.Time, "time", "", "start time")
	fs.StringVar(&input.Description, "description", "", "what is happening")
	fs.StringVar(&input.ReporterName, "reporter", "", "reporter name")
	fs.StringVar(&input.ReporterContact, "contact", "", "reporter contact")
	fs.StringVar(&input.Image, "image", "", "image URL")
	_ = fs.Parse(args)

	filed, err := ctrl.Report(input)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	fmt.Printf("filed report %d: %s\n", filed.ID, filed.Title)
}

func runOpinions(ctx context.Context, ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("opinions", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id")
	_ = fs.Parse(args)
	if *eventID == 0 {
		log.Fatal("opinions: -event is required")
	}

	list, err := ctrl.Opinions(ctx, *eventID)
	if err != nil {
		log.Printf("opinions unavailable: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("no opinions yet")
		return
	}
	now := time.Now()
	for _, o := range list {
		fmt.Printf("#%d  %s  (%s)\n", o.ID, o.Comment, reconcile.RelativeLabel(o.CreatedAt, now))
	}
}

func runOpine(ctx context.Context, ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("opine", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id")
	comment := fs.String("comment", "", "opinion text")
	_ = fs.Parse(args)
	if *eventID == 0 {
		log.Fatal("opine: -event is required")
	}

	added, err := ctrl.AddOpinion(ctx, *eventID, *comment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "your text: %s\n", *comment)
		log.Fatalf("opine: %v", err)
	}
	fmt.Printf("added opinion #%d\n", added.ID)
}

func runSearch(ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	text := fs.String("q", "", "query text")
	status := fs.String("status", "", "filter by status")
	county := fs.String("county", "", "filter by county")
	limit := fs.Int("limit", 20, "max results")
	_ = fs.Parse(args)

	resp := ctrl.Search(search.Query{
		Text:         *text,
		FilterStatus: *status,
		FilterCounty: *county,
		Limit:        *limit,
	})
	for _, r := range resp.Results {
		fmt.Printf("%d  [%s]  %s — %s\n", r.ID, r.Status, r.Title, r.Snippet)
	}
	fmt.Printf("\n%d of %d matches\n", len(resp.Results), resp.Total)
}

func runHistory(ctrl *watch.Controller, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 10, "number of commits")
	_ = fs.Parse(args)

	commits, err := ctrl.History(*limit)
	if err != nil {
		log.Fatalf("history: %v", err)
	}
	for _, c := range commits {
		fmt.Printf("%s  %s  %s\n", c.CreatedAt.Format(time.RFC3339), c.Author, c.Message)
	}
}

func runListen(ctrl *watch.Controller, hub sig.Hub) {
	changed, stopChanged := hub.SubscribeEventsChanged()
	defer stopChanged()
	alerts, stopAlerts := hub.SubscribeAlerts()
	defer stopAlerts()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("%d events; listening for changes (ctrl-c to stop)\n", len(ctrl.Events()))
	for {
		select {
		case <-changed:
			fmt.Printf("events changed, feed now has %d events\n", len(ctrl.Events()))
		case alert := <-alerts:
			fmt.Printf("[%s] %s\n", alert.Type, alert.Message)
		case <-sigCh:
			return
		}
	}
}
