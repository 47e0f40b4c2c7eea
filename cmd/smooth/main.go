// Command smooth runs the keypoint smoothing pipeline over a local directory
// of OpenPose JSON files and writes the result next to it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/fiapx/fiapx-pose-service/internal/infra/archive"
	"github.com/fiapx/fiapx-pose-service/internal/infra/openpose"
	"github.com/fiapx/fiapx-pose-service/internal/infra/resultcodec"
	"github.com/fiapx/fiapx-pose-service/internal/pose"
	"github.com/fiapx/fiapx-pose-service/pkg/logger"
	"go.uber.org/zap"
)

var (
	logLevel string
	dirPath  string
	outPath  string
	zipPath  string
	format   string
	person   int
	window   int
	noLeg    bool
)

func init() {
	flag.StringVar(&logLevel, "logLevel", "info", "set log level")
	flag.StringVar(&dirPath, "dir", "", "directory of OpenPose *_keypoints.json files")
	flag.StringVar(&outPath, "out", "", "result path (default <dir>/smoothed.<format>)")
	flag.StringVar(&zipPath, "zip", "", "optional per-frame export archive")
	flag.StringVar(&format, "format", "json", "result format: json or msgpack")
	flag.IntVar(&person, "person", 0, "index into people[] of every frame")
	flag.IntVar(&window, "window", pose.DefaultWindowSize, "odd median window width")
	flag.BoolVar(&noLeg, "noLeg", false, "disable leg inference")
}

var errUsage = errors.New("-dir is required")

func main() {
	flag.Parse()

	log, err := logger.New(logLevel)
	if err != nil {
		panic(err)
	}

	code := 0
	if err := run(log); err != nil {
		code = 1
		if errors.Is(err, errUsage) {
			flag.Usage()
			code = 2
		}
		log.Error("smoothing failed", zap.Error(err))
	}
	_ = log.Sync()
	os.Exit(code)
}

func run(log *zap.Logger) error {
	if dirPath == "" {
		return errUsage
	}
	f, err := resultcodec.ParseFormat(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = filepath.Join(dirPath, "smoothed."+f.Extension())
	}

	names, err := openpose.ListDir(dirPath)
	if err != nil {
		return err
	}
	log.Info("start reading data", zap.String("dir", dirPath), zap.Int("files", len(names)))

	bar := pb.StartNew(len(names))
	records, err := openpose.LoadDir(dirPath, person, func(string) { bar.Increment() })
	bar.Finish()
	if err != nil {
		return err
	}

	opts := pose.DefaultOptions()
	opts.WindowSize = window
	opts.InferLegs = !noLeg
	opts.Observer = func(e pose.Event) {
		log.Debug("smoothing event",
			zap.Stringer("kind", e.Kind),
			zap.Int("frame", e.Frame),
			zap.Stringer("joint", e.Joint),
			zap.Int("span", e.Span),
			zap.Float64("value", e.Value),
		)
	}

	res, err := pose.Smooth(records, opts)
	if err != nil {
		return err
	}

	if err := writeResult(outPath, res, f); err != nil {
		return err
	}

	if zipPath != "" {
		if err := archive.NewZipCreator().CreateZip(context.Background(), filepath.Base(dirPath), res, zipPath); err != nil {
			return err
		}
	}

	log.Info("done",
		zap.String("out", outPath),
		zap.Int("start_frame", res.StartFrame),
		zap.Int("frames", len(res.Frames)),
		zap.Bool("smoothed", res.Smoothed),
		zap.Any("stats", res.Stats),
	)
	return nil
}

// writeResult encodes res to path. The file is closed before returning so a
// failed flush surfaces as an error.
func writeResult(path string, res *pose.Result, f resultcodec.Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := resultcodec.Encode(out, res, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}
