package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/artifact"
	"github.com/wudi/pdfmarkup/bake"
	"github.com/wudi/pdfmarkup/exchange"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/forms"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/store"
)

func runBake(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("bake", flag.ContinueOnError)
	in := fs.String("in", "", "Source PDF")
	out := fs.String("out", "", "Output PDF (default: export sink only)")
	annotations := fs.String("annotations", "", "Annotation export JSON; when empty the store is read")
	docID := fs.String("doc", "", "Document id to load from the store")
	withForms := fs.Bool("forms", true, "Read form fields and recalculate totals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}
	original, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	doc, err := loadAnnotations(ctx, e, *annotations, *docID)
	if err != nil {
		return err
	}

	var fields []annotation.FormField
	if *withForms {
		if fields, err = formFields(ctx, e, original, doc); err != nil {
			return err
		}
	}

	raster, err := rasterizer(e)
	if err != nil {
		return err
	}
	defer raster.Close()
	engine, err := bake.New(bake.WithRasterizer(raster), bake.WithLogger(e.logger),
		bake.WithTracer(observability.NewLogTracer(e.logger)))
	if err != nil {
		return err
	}
	pdf, report, err := engine.Bake(ctx, bake.FromDocument(original, doc, fields))
	if err != nil {
		return err
	}
	e.logger.Info("baked",
		observability.String("doc", doc.ID),
		observability.Int("pages", report.Pages),
		observability.Int("skipped", len(report.Skipped)),
	)
	if *out != "" {
		if err := os.WriteFile(*out, pdf, 0o644); err != nil {
			return err
		}
	}
	sink, err := exportSink(ctx, e)
	if err != nil {
		return err
	}
	if sink != nil {
		loc, err := sink.Put(ctx, doc.ID, pdf)
		if err != nil {
			return err
		}
		fmt.Println(loc)
	}
	return nil
}

func loadAnnotations(ctx context.Context, e *env, path, docID string) (*annotation.Document, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		data, err := exchange.Import(f)
		if err != nil {
			return nil, err
		}
		return data.Document(), nil
	}
	if docID == "" {
		return nil, errors.New("either -annotations or -doc is required")
	}
	repo, closer, err := openRepository(ctx, e)
	if err != nil {
		return nil, err
	}
	defer closer()
	return repo.LoadDocument(ctx, docID)
}

// formFields reads the AcroForm and folds recalculated values into doc.
func formFields(ctx context.Context, e *env, original []byte, doc *annotation.Document) ([]annotation.FormField, error) {
	sizes, err := inspect(ctx, original)
	if err != nil {
		return nil, err
	}
	fields, err := forms.Extract(ctx, forms.PDFSource{Data: original}, sizes)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	fields = forms.SetupCommonCalculations(fields)
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Name] = f.Value
	}
	for k, v := range doc.FormValues {
		values[k] = v
	}
	calc := forms.NewCalculator(forms.WithLogger(e.logger))
	if doc.FormValues, err = calc.Calculate(ctx, fields, values); err != nil {
		return nil, err
	}
	return fields, nil
}

func rasterizer(e *env) (*fonts.Rasterizer, error) {
	scale := float64(e.cfg.RasterScale)
	if e.cfg.FontPath != "" {
		return fonts.LoadRasterizer(e.cfg.FontPath, scale)
	}
	return fonts.NewRasterizer(nil, scale)
}

func exportSink(ctx context.Context, e *env) (artifact.Sink, error) {
	switch {
	case e.cfg.MinioEndpoint != "":
		return artifact.NewMinioSink(ctx, artifact.MinioConfig{
			Endpoint:  e.cfg.MinioEndpoint,
			AccessKey: e.cfg.MinioAccessKey,
			SecretKey: e.cfg.MinioSecretKey,
			Bucket:    e.cfg.MinioBucket,
			UseSSL:    e.cfg.MinioUseSSL,
		})
	case e.cfg.ExportDir != "":
		return artifact.FileSink{Dir: e.cfg.ExportDir}, nil
	}
	return nil, nil
}

func openRepository(ctx context.Context, e *env) (*store.Repository, func(), error) {
	var (
		s      store.Store
		closer = func() {}
	)
	switch e.cfg.Store {
	case "memory":
		s = store.NewMemory()
	case "redis":
		rs, err := store.NewRedisStore(ctx, e.cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		s, closer = rs, func() { _ = rs.Close() }
	case "postgres":
		ps, err := store.OpenPostgres(ctx, e.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s, closer = ps, func() { _ = ps.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store %q", e.cfg.Store)
	}
	repo, err := store.Open(ctx, s, store.WithLogger(e.logger))
	if err != nil {
		closer()
		return nil, nil, err
	}
	return repo, closer, nil
}

func runImport(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	path := fs.String("annotations", "", "Annotation export JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-annotations is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := exchange.Import(f)
	if err != nil {
		return err
	}
	repo, closer, err := openRepository(ctx, e)
	if err != nil {
		return err
	}
	defer closer()
	if err := repo.SaveDocument(ctx, data.Document()); err != nil {
		return err
	}
	e.logger.Info("imported", observability.String("doc", data.DocID), observability.Int("pages", data.TotalPages))
	return nil
}
