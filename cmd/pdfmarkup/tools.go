package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wudi/pdfmarkup/contentstream"
	"github.com/wudi/pdfmarkup/convert"
	"github.com/wudi/pdfmarkup/docid"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/pdfdoc"
	"github.com/wudi/pdfmarkup/security"
	"github.com/wudi/pdfmarkup/toc"
)

func inspect(ctx context.Context, pdf []byte) ([]pdfdoc.Size, error) {
	return pdfdoc.Inspect(ctx, pdf)
}

func runTOC(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("toc", flag.ContinueOnError)
	in := fs.String("in", "", "Source PDF")
	out := fs.String("out", "", "Output PDF")
	runs := fs.String("runs", "", "JSON array of text runs per page (default: read from -in)")
	at := fs.Int("at", 1, "1-based page the table of contents is inserted before")
	columns := fs.Int("columns", 1, "Column count")
	heading := fs.String("heading", "Contents", "Heading of the first page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("-in and -out are required")
	}
	original, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	pages, err := textRuns(ctx, e, original, *runs)
	if err != nil {
		return err
	}
	doc, err := pdfdoc.Open(ctx, original)
	if err != nil {
		return err
	}
	raster, err := rasterizer(e)
	if err != nil {
		return err
	}
	defer raster.Close()
	_, n, err := toc.Embed(ctx, doc, toc.DetectHeadings(pages), *at,
		toc.WithColumns(*columns),
		toc.WithHeading(*heading),
		toc.WithTextRenderer(fonts.NewSelector(raster)),
		toc.WithLogger(e.logger),
		toc.WithTracer(observability.NewLogTracer(e.logger)),
	)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := (pdfdoc.FPDF{Compress: true}).Serialize(ctx, doc, f); err != nil {
		f.Close()
		return err
	}
	e.logger.Info("toc embedded", observability.Int("pages", n))
	return f.Close()
}

func textRuns(ctx context.Context, e *env, pdf []byte, path string) ([][]toc.TextRun, error) {
	if path == "" {
		return contentstream.PageRuns(ctx, pdf, e.logger)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pages [][]toc.TextRun
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("parse runs: %w", err)
	}
	return pages, nil
}

func runSplit(ctx context.Context, _ *env, args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	in := fs.String("in", "", "Source PDF")
	out := fs.String("out", "", "Output PDF")
	from := fs.Int("from", 1, "First page (1-based)")
	to := fs.Int("to", 1, "Last page (inclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("-in and -out are required")
	}
	src, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := convert.Split(ctx, src, *from, *to, f); err != nil {
		f.Close()
		_ = os.Remove(*out)
		return err
	}
	return f.Close()
}

func runProtect(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("protect", flag.ContinueOnError)
	in := fs.String("in", "", "Source PDF")
	out := fs.String("out", "", "Output PDF")
	password := fs.String("password", "", "User password; empty copies the input")
	owner := fs.String("owner-password", "", "Owner password (default: user password)")
	perms := security.AllowAll()
	fs.BoolVar(&perms.Print, "print", true, "Allow printing")
	fs.BoolVar(&perms.Modify, "modify", true, "Allow modification")
	fs.BoolVar(&perms.Copy, "copy", true, "Allow copying text and images")
	fs.BoolVar(&perms.ModifyAnnotations, "annotate", true, "Allow annotating")
	fs.BoolVar(&perms.FillForms, "fill-forms", true, "Allow filling forms")
	fs.BoolVar(&perms.ExtractAccessible, "accessibility", true, "Allow accessibility extraction")
	fs.BoolVar(&perms.Assemble, "assemble", true, "Allow page assembly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("-in and -out are required")
	}
	src, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	p := security.Protector{Limits: security.DefaultLimits()}
	if *password != "" {
		if p.Tool, err = security.LocateTool(e.cfg.QPDFPath); err != nil {
			return err
		}
	}
	data, err := p.Protect(ctx, src, security.Request{Password: *password, OwnerPassword: *owner, Permissions: perms})
	if err != nil {
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}

func runImages(ctx context.Context, _ *env, args []string) error {
	fs := flag.NewFlagSet("images", flag.ContinueOnError)
	out := fs.String("out", "", "Output PDF")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() == 0 {
		return errors.New("usage: images -out a.pdf img1.png [img2.jpg ...]")
	}
	images := make([]convert.Image, 0, fs.NArg())
	for _, p := range fs.Args() {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		images = append(images, convert.Image{Name: filepath.Base(p), Data: data})
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := convert.ImagesToPDF(ctx, images, f); err != nil {
		f.Close()
		_ = os.Remove(*out)
		return err
	}
	return f.Close()
}

func runID(_ context.Context, _ *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: id <file>")
	}
	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	fmt.Println(docid.FromFile(filepath.Base(args[0]), st.Size(), st.ModTime()))
	return nil
}

func runServe(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/api/protect", security.NewProtectHandler(e.cfg.QPDFPath, e.logger))
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	e.logger.Info("listening", observability.String("addr", *addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}
