package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"phishdetect/pkg/cmd"
	"phishdetect/pkg/config"
	"phishdetect/pkg/model"
	"phishdetect/pkg/service"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// CheckJob is one URL queued for classification. Index keeps output in input order.
type CheckJob struct {
	Index      int
	URL        string
	IsPhishing *bool // ground truth, nil when the input has none
}

var errNoJobs = errors.New("no URLs to check")

type checkResult struct {
	Index  int
	Report config.URLReport
	Err    error
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "classify one URL or a batch from a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "a single URL to check"},
			&cli.StringFlag{Name: "urls", Usage: "path to a file with one URL per line"},
			&cli.StringFlag{Name: "phishtank", Usage: "path to a PhishTank CSV export (verified, online rows are labelled phishing)"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 8, Usage: "number of concurrent workers"},
			&cli.DurationFlag{Name: "timeout", Value: 45 * time.Second, Usage: "time limit per URL"},
			&cli.BoolFlag{Name: "json", Usage: "print reports as JSON"},
			&cli.StringFlag{Name: "csv", Usage: "append reports to this CSV file"},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	if c.Int("workers") < 1 {
		return cli.Exit("workers must be a positive integer (>= 1)", 2)
	}

	jobs, err := loadJobs(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	classifier, err := model.Load(cfg.Model.Path)
	if err != nil {
		return err
	}
	extractor := cmd.NewExtractor(cfg, cmd.WithLogger(logger))
	svc := service.New(extractor, classifier, nil, logger)

	var csvWriter *cmd.CSVWriter
	if path := c.String("csv"); path != "" {
		csvWriter, err = cmd.NewCSVWriter(path)
		if err != nil {
			return err
		}
		defer func() {
			if err := csvWriter.Close(); err != nil {
				logger.Error("failed to close CSV", "path", path, "err", err)
			}
		}()
		logger.Info("saving reports", "path", path)
	}

	var spin *spinner.Spinner
	if !c.Bool("json") {
		spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" checking %d URL(s)", len(jobs))
		spin.Start()
	}

	reports, failed := runJobs(c.Context, svc, logger, jobs, c.Int("workers"), c.Duration("timeout"))

	if spin != nil {
		spin.Stop()
	}

	for _, r := range reports {
		if csvWriter != nil {
			if err := csvWriter.WriteReport(r); err != nil {
				return err
			}
		}
		if c.Bool("json") {
			jsonData, _ := json.MarshalIndent(r, "", "  ")
			fmt.Println(string(jsonData))
			continue
		}
		printReport(os.Stdout, r)
	}

	logger.Info("check finished", "urls", len(reports), "failed", failed)
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d URL(s) could not be classified", failed), 1)
	}
	return nil
}

func loadJobs(c *cli.Context) ([]CheckJob, error) {
	var jobs []CheckJob
	switch {
	case c.String("phishtank") != "":
		seeds, err := cmd.ReadPhishtankURLsFromFile(c.String("phishtank"))
		if err != nil {
			return nil, fmt.Errorf("error reading phishtank URLs: %w", err)
		}
		for i, seed := range seeds {
			label := seed.IsPhishing
			jobs = append(jobs, CheckJob{Index: i, URL: seed.URL, IsPhishing: &label})
		}
	case c.String("urls") != "":
		urls, err := cmd.ReadURLsFromFile(c.String("urls"))
		if err != nil {
			return nil, fmt.Errorf("error reading URLs: %w", err)
		}
		for i, u := range urls {
			jobs = append(jobs, CheckJob{Index: i, URL: u})
		}
	case c.String("url") != "":
		jobs = append(jobs, CheckJob{URL: c.String("url")})
	default:
		return nil, cli.Exit("one of --url, --urls or --phishtank is required", 2)
	}
	if len(jobs) == 0 {
		return nil, errNoJobs
	}
	return jobs, nil
}

// It just processes jobs until the jobs channel is closed.
func worker(ctx context.Context, id int, svc *service.Service, logger *log.Logger, timeout time.Duration, jobs <-chan CheckJob, results chan<- checkResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		jobCtx, cancel := context.WithTimeout(ctx, timeout)
		res, err := svc.Check(jobCtx, job.URL)
		cancel()

		report := res.Report()
		report.URL = job.URL
		report.IsPhishing = job.IsPhishing
		if err != nil {
			logger.Error("classification failed", "worker", id, "url", job.URL, "err", err)
			report.Error = err.Error()
		}
		results <- checkResult{Index: job.Index, Report: report, Err: err}
	}
}

// runJobs fans jobs out to the worker pool and returns reports in input order.
func runJobs(ctx context.Context, svc *service.Service, logger *log.Logger, jobs []CheckJob, workers int, timeout time.Duration) ([]config.URLReport, int) {
	jobsCh := make(chan CheckJob)
	results := make(chan checkResult)
	var wg sync.WaitGroup

	if workers > len(jobs) {
		workers = len(jobs)
	}
	wg.Add(workers)
	for w := 1; w <= workers; w++ {
		go worker(ctx, w, svc, logger, timeout, jobsCh, results, &wg)
	}

	go func() {
		defer close(jobsCh)
		for _, job := range jobs {
			select {
			case jobsCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	reports := make([]config.URLReport, len(jobs))
	done := make([]bool, len(jobs))
	failed := 0
	for res := range results {
		reports[res.Index] = res.Report
		done[res.Index] = true
		if res.Err != nil {
			failed++
		}
	}

	// Drop slots for jobs never dispatched after cancellation.
	out := reports[:0]
	for i, r := range reports {
		if done[i] {
			out = append(out, r)
		}
	}
	return out, failed
}

func printReport(w io.Writer, r config.URLReport) {
	switch {
	case r.Error != "":
		color.New(color.FgRed).Fprintf(w, "[ERROR] %s: %s\n", r.URL, r.Error)
	case r.Label == model.LabelPhishing:
		color.New(color.FgRed, color.Bold).Fprintf(w, "[PHISHING] %s\n", r.URL)
	case r.Label == model.LabelLegitimate:
		color.New(color.FgGreen).Fprintf(w, "[LEGITIMATE] %s\n", r.URL)
	default:
		color.New(color.FgYellow).Fprintf(w, "[%s] %s\n", r.Label, r.URL)
	}
	for _, m := range r.Messages {
		fmt.Fprintf(w, "    - %s\n", m)
	}
	if r.IsPhishing != nil {
		truth := model.LabelLegitimate
		if *r.IsPhishing {
			truth = model.LabelPhishing
		}
		fmt.Fprintf(w, "    expected: %s\n", truth)
	}
}
