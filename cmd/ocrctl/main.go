// Command ocrctl is a small client for the job API: submit images, browse
// and prune history.
//
//	ocrctl [-url URL] [-token TOKEN] submit [-lang eng] [-parallel 4] FILE...
//	ocrctl history [-limit 20]
//	ocrctl delete JOB_ID
//	ocrctl clear
//	ocrctl logout
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"ocr-pro/internal/client"
)

func main() {
	baseURL := flag.String("url", envOr("OCR_API_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("OCR_TOKEN"), "bearer token (see cmd/token)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*baseURL, *token, &http.Client{})
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "submit":
		err = submit(ctx, c, args)
	case "history":
		err = history(ctx, c, args)
	case "delete":
		if len(args) != 1 {
			err = errors.New("delete needs exactly one job id")
			break
		}
		err = client.NewHistory(c).Delete(ctx, args[0])
	case "clear":
		var n int64
		n, err = client.NewHistory(c).Clear(ctx)
		if err == nil {
			fmt.Printf("deleted %d jobs\n", n)
		}
	case "logout":
		err = client.NewHistory(c).Logout(ctx)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocrctl %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func submit(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	lang := fs.String("lang", "", "OCR language hint (default: server default)")
	parallel := fs.Int("parallel", 4, "max concurrent uploads")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("no files given")
	}
	if *parallel < 1 {
		return errors.New("-parallel must be at least 1")
	}

	up := client.NewUploader(c)
	stopListening := up.OnRefresh(func(ev client.RefreshEvent) {
		fmt.Fprintf(os.Stderr, "history updated (job %s)\n", ev.JobID)
	})
	defer stopListening()

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)
	for _, path := range fs.Args() {
		path := path
		g.Go(func() error {
			image, err := readImage(path)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				return nil
			}
			res, err := up.Submit(gctx, image, *lang)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				return nil
			}
			fmt.Printf("== %s (job %s, confidence %.2f)\n%s\n", path, res.JobID, res.Confidence, res.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, fs.NArg())
	}
	return nil
}

func history(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 0, "number of jobs (default: server default)")
	_ = fs.Parse(args)

	jobs, err := client.NewHistory(c).List(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCONFIDENCE\tCREATED\tTEXT / ERROR")
	for _, j := range jobs {
		detail := preview(j.ExtractedText)
		if j.ErrorMessage != nil {
			detail = *j.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", j.ID, j.Status, j.Confidence, j.CreatedAt.Local().Format(time.DateTime), detail)
	}
	return tw.Flush()
}

// readImage returns the file as a data URL, the form the provider accepts.
func readImage(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") && mime != "application/pdf" {
		return "", fmt.Errorf("unsupported content type %s", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

func preview(s string) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return string(r)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ocrctl [-url URL] [-token TOKEN] <command> [args]

commands:
  submit [-lang eng] [-parallel 4] FILE...   upload and recognize images
  history [-limit N]                         list recent jobs, newest first
  delete JOB_ID                              delete one job
  clear                                      delete all of your jobs
  logout                                     revoke the token`)
}
