package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	platecropper "github.com/menta2k/plate-cropper"
	"github.com/menta2k/plate-cropper/internal/config"
	"github.com/menta2k/plate-cropper/internal/utils"
	"github.com/menta2k/plate-cropper/pkg/client"
	"github.com/menta2k/plate-cropper/pkg/cropper"
	"github.com/menta2k/plate-cropper/pkg/llamacpp"
	"github.com/menta2k/plate-cropper/pkg/ollama"
	"github.com/menta2k/plate-cropper/pkg/processing"
	"github.com/menta2k/plate-cropper/pkg/selection"
	"github.com/menta2k/plate-cropper/pkg/upload"
)

func main() {
	var in, outDir, configPath, display, events, ext string
	var backend, url, model string
	var timeout int
	var submit, debug, saveConfig bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp/gif/bmp/tiff)")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "config file path")
	flag.StringVar(&display, "display", "", "preview pane size WxH (default from config)")
	flag.StringVar(&events, "events", "", `pointer script, e.g. "click:100,75 move:200,150 click:300,225 leave"`)
	flag.StringVar(&ext, "ext", "", "crop format: png|webp (always lossless)")

	flag.BoolVar(&submit, "submit", false, "submit the crop (or the whole image) for recognition")
	flag.StringVar(&backend, "backend", "", "recognizer backend: upload, ollama or llamacpp")
	flag.StringVar(&url, "url", "", "recognizer URL (upload endpoint, ollama or llama.cpp server)")
	flag.StringVar(&model, "model", "", "vision model name (ollama/llamacpp)")
	flag.IntVar(&timeout, "timeout", -1, "upload timeout in seconds, 0 waits indefinitely")

	flag.BoolVar(&debug, "debug", false, "write the preview with the selection overlay")
	flag.BoolVar(&saveConfig, "saveconfig", false, "write the effective configuration to -config and exit")

	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// flags override the config file and environment
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if ext != "" {
		cfg.Crop.Format = strings.ToLower(ext)
	}
	if backend != "" {
		cfg.Recognizer.Backend = backend
	}
	if url != "" {
		switch cfg.Recognizer.Backend {
		case config.BackendOllama:
			cfg.Recognizer.OllamaURL = url
		case config.BackendLlamaCpp:
			cfg.Recognizer.LlamaCppURL = url
		default:
			cfg.Upload.URL = url
		}
	}
	if model != "" {
		cfg.Recognizer.OllamaModel = model
		cfg.Recognizer.LlamaCppModel = model
	}
	if timeout >= 0 {
		cfg.Upload.Timeout = timeout
	}
	if display != "" {
		w, h, err := parseSize(display)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Output.PreviewWidth, cfg.Output.PreviewHeight = w, h
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if saveConfig {
		if err := cfg.SaveToFile(configPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", configPath)
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in image.jpg|URL -events \"click:x,y click:x,y\" [-display 400x300] [-ext png|webp] [-submit] [-backend upload|ollama|llamacpp] [-url server_url] [-out outdir]", filepath.Base(os.Args[0]))
	}
	script, err := parseEvents(events)
	if err != nil {
		log.Fatal(err)
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}

	var recognizer client.Recognizer
	if submit {
		recognizer, err = newRecognizer(cfg)
		if err != nil {
			log.Fatalf("Failed to create recognizer: %v", err)
		}
	}

	ws := platecropper.NewWithConfig(
		selection.Config{MinWidth: cfg.Selection.MinWidth, MinHeight: cfg.Selection.MinHeight},
		cropper.CropConfig{Format: cfg.Crop.Format, Quality: cfg.Crop.Quality, Lossless: true},
		recognizer,
	)
	defer ws.Close()

	if err := ws.Open(in); err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded\n%s", ws.Describe())

	pane, err := ws.Display(cfg.Output.PreviewWidth, cfg.Output.PreviewHeight)
	if err != nil {
		log.Fatal(err)
	}
	src := ws.Session().Source()
	log.Printf("source=%dx%d preview=%.0fx%.0f", src.Dims.Width, src.Dims.Height, pane.Width, pane.Height)

	ctx := context.Background()
	for _, ev := range script {
		switch ev.Kind {
		case "click":
			res, err := ws.Click(ctx, ev.X, ev.Y, pane)
			if err != nil {
				log.Printf("crop failed: %v", err)
				continue
			}
			logSelection("click", ev, res, ws)
		case "move":
			res := ws.Move(ev.X, ev.Y, pane)
			logSelection("move", ev, res, ws)
		case "leave":
			res := ws.Leave()
			log.Printf("leave -> %s", res.Kind)
		}
	}

	if crop := ws.Crop(); crop != nil {
		cropPath := ws.OutputPath(cfg.Output.OutputDir)
		if err := ws.SaveCrop(cropPath); err != nil {
			log.Printf("save %s failed: %v", cropPath, err)
		} else {
			log.Printf("wrote %s (%dx%d, %s)", cropPath, crop.Dims.Width, crop.Dims.Height,
				utils.FormatFileSize(int64(len(crop.Data))))
		}
	} else {
		log.Printf("no crop selected")
	}

	// Create debug overlay of the preview pane (if debug enabled)
	if debug {
		overlay, err := ws.RenderPreview(cfg.Output.PreviewWidth, cfg.Output.PreviewHeight)
		if err != nil {
			log.Printf("debug overlay failed: %v", err)
		} else {
			dbgPath := filepath.Join(cfg.Output.OutputDir, "000_preview_with_selection.png")
			if err := processing.NewProcessor().SaveImage(overlay, dbgPath, processing.FormatPNG, 100, true); err != nil {
				log.Printf("debug save %s failed: %v", dbgPath, err)
			} else {
				log.Printf("wrote %s", dbgPath)
			}
		}
	}

	if submit {
		text, err := ws.Submit(ctx)
		if err != nil {
			log.Printf("submit failed: %v", err)
		}
		fmt.Println(text)
		resultPath := filepath.Join(cfg.Output.OutputDir, "result.txt")
		if err := saveResult(resultPath, text); err != nil {
			log.Printf("save %s failed: %v", resultPath, err)
		}
	}
}

// saveResult writes the result pane text next to the crop
func saveResult(path, text string) error {
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}

func newRecognizer(cfg *config.Config) (client.Recognizer, error) {
	switch cfg.Recognizer.Backend {
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.Recognizer.OllamaURL, cfg.Recognizer.OllamaModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.Recognizer.LlamaCppURL, cfg.Recognizer.LlamaCppModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendUpload:
		c, err := upload.NewClient(cfg.Upload.URL, cfg.UploadTimeout())
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'upload', 'ollama' or 'llamacpp')", cfg.Recognizer.Backend)
	}
}

func logSelection(action string, ev pointerEvent, res selection.Event, ws *platecropper.Workspace) {
	if res.Kind == selection.None {
		return
	}
	log.Printf("%s %.0f,%.0f -> %s box=%.3fx%.3f@%.3f,%.3f", action, ev.X, ev.Y, res.Kind,
		res.Box.W, res.Box.H, res.Box.X, res.Box.Y)
	if res.Kind == selection.Finalized && ws.Crop() != nil {
		log.Printf("crop %dx%d ready", ws.Crop().Dims.Width, ws.Crop().Dims.Height)
	}
}
