package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/mmeshcher/transcribe-tool/internal/config"
	"github.com/mmeshcher/transcribe-tool/internal/credstore"
	"github.com/mmeshcher/transcribe-tool/internal/model"
	"github.com/mmeshcher/transcribe-tool/internal/rev"
	"github.com/mmeshcher/transcribe-tool/internal/service"
)

const usage = `usage: transcribe [flags] <command> [args]

commands:
  login -client-key K -user-key K   save credentials for the environment
  logout                            remove saved credentials
  orders                            list orders
  order [-watch] [-interval D] N    show an order
  add-url [-filename F] [-content-type T] URL
  upload [-content-type T] FILE...
  submit [-ref R] [-verbatim] [-no-timestamps] [-format F,...] URI...`

var errUsage = errors.New("invalid usage")

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// run выполняет команду из cfg.Args и пишет результат в out.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	if len(cfg.Args) == 0 {
		fmt.Fprintln(out, usage)
		return errUsage
	}

	store, err := credstore.Load(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	command, args := cfg.Args[0], cfg.Args[1:]

	switch command {
	case "login":
		return login(cfg, store, args, out)
	case "logout":
		return logout(cfg, store, out)
	}

	creds, err := resolveCredentials(cfg, store)
	if err != nil {
		return err
	}

	factory := func() (*rev.Client, error) {
		opts := []rev.Option{rev.WithLogger(logger)}
		if cfg.APIURL != "" {
			opts = append(opts, rev.WithBaseURL(cfg.APIURL))
		}
		return rev.NewClient(creds, opts...)
	}

	svc, err := service.NewService(factory, logger)
	if err != nil {
		return err
	}

	logger.Debug("running command", zap.String("command", command), zap.String("environment", string(creds.Environment)))

	switch command {
	case "orders":
		return listOrders(ctx, svc, out)
	case "order":
		return showOrder(ctx, svc, args, out)
	case "add-url":
		return addURL(ctx, svc, args, out)
	case "upload":
		return upload(ctx, svc, args, out)
	case "submit":
		return submit(ctx, svc, args, out)
	default:
		fmt.Fprintln(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func listOrders(ctx context.Context, svc *service.Service, out io.Writer) error {
	page, err := svc.ListOrders(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(page.Orders))
	for _, o := range page.Orders {
		rows = append(rows, []string{
			o.OrderNumber,
			optional(o.ClientRef),
			o.Price.StringFixed(2),
			string(o.Status),
			o.Priority,
		})
	}

	fmt.Fprintln(out, renderTable([]string{"NUMBER", "CLIENT REF", "PRICE", "STATUS", "PRIORITY"}, rows))
	fmt.Fprintf(out, "%d of %d orders\n", len(page.Orders), page.TotalCount)
	return nil
}

func showOrder(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	fs.SetOutput(out)
	watch := fs.Bool("watch", false, "poll until the order is complete or cancelled")
	interval := fs.Duration("interval", 30*time.Second, "poll interval for -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: order number is required", errUsage)
	}
	number := fs.Arg(0)

	if !*watch {
		detail, err := svc.GetOrder(ctx, number)
		if err != nil {
			return err
		}
		printOrder(out, detail)
		return nil
	}

	_, err := svc.WatchOrder(ctx, number, *interval, func(detail model.OrderDetail) {
		printOrder(out, detail)
	})
	return err
}

func printOrder(out io.Writer, detail model.OrderDetail) {
	fmt.Fprintf(out, "order %s: %s\n", detail.OrderNumber, detail.Status)
	if detail.ClientRef != nil {
		fmt.Fprintf(out, "client ref: %s\n", *detail.ClientRef)
	}
	fmt.Fprintf(out, "price: %s  priority: %s\n", detail.Price.StringFixed(2), detail.Priority)

	if len(detail.Attachments) > 0 {
		rows := make([][]string, 0, len(detail.Attachments))
		for _, a := range detail.Attachments {
			rows = append(rows, []string{a.ID, a.Kind, a.Name})
		}
		fmt.Fprintln(out, renderTable([]string{"ID", "KIND", "NAME"}, rows))
	}

	for _, c := range detail.Comments {
		fmt.Fprintf(out, "%s %s: %s\n", c.Timestamp, optional(c.By), optional(c.Text))
	}
}

func addURL(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-url", flag.ContinueOnError)
	fs.SetOutput(out)
	filename := fs.String("filename", "", "file name, defaults to the last path component")
	contentType := fs.String("content-type", "", "media type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: url is required", errUsage)
	}

	uri, err := svc.AddURLInput(ctx, fs.Arg(0), *filename, *contentType)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, uri)
	return nil
}

func upload(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(out)
	contentType := fs.String("content-type", "", "media type, defaults to video/mp4")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: at least one file is required", errUsage)
	}

	var mu sync.Mutex
	reported := make(map[string]int)

	onProgress := func(path string, sent, total int64) {
		if total <= 0 {
			return
		}
		percent := int(sent * 100 / total)

		mu.Lock()
		defer mu.Unlock()
		if last, seen := reported[path]; seen && (percent == last || percent < last+10 && percent != 100) {
			return
		}
		reported[path] = percent
		fmt.Fprintf(out, "%s: %d%%\n", path, percent)
	}

	uploaded, err := svc.UploadFiles(ctx, fs.Args(), *contentType, onProgress)
	if err != nil {
		return err
	}

	for _, u := range uploaded {
		fmt.Fprintf(out, "%s\t%s\n", u.Path, u.URI)
	}
	return nil
}

func submit(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(out)
	ref := fs.String("ref", "", "client reference")
	verbatim := fs.Bool("verbatim", false, "verbatim transcription")
	noTimestamps := fs.Bool("no-timestamps", false, "omit timestamps")
	formats := fs.String("format", "", "comma-separated output file formats")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: at least one input uri is required", errUsage)
	}

	inputs := make([]model.Input, 0, fs.NArg())
	for _, uri := range fs.Args() {
		inputs = append(inputs, model.Input{URI: uri})
	}

	params := model.NewCaptionOrderParams(inputs, splitList(*formats))
	params.ClientRef = *ref
	params.Verbatim = *verbatim
	params.Timestamps = !*noTimestamps

	location, err := svc.SubmitCaptionOrder(ctx, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, location)
	return nil
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
