package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fiapx/fiapx-pose-service/internal/infra/openpose"
	"github.com/fiapx/fiapx-pose-service/internal/pose"
)

// ZipCreator exports a smoothed sequence as one OpenPose file per frame,
// the layout the lifting stage reads.
type ZipCreator struct{}

func NewZipCreator() *ZipCreator {
	return &ZipCreator{}
}

func (z *ZipCreator) CreateZip(ctx context.Context, prefix string, res *pose.Result, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	var buf bytes.Buffer
	for i, xy := range res.Frames {
		select {
		case <-ctx.Done():
			zipWriter.Close()
			return ctx.Err()
		default:
		}

		buf.Reset()
		if err := openpose.EncodeFrame(&buf, xy); err != nil {
			zipWriter.Close()
			return err
		}
		name := openpose.FrameName(prefix, res.StartFrame+i)
		if err := addEntry(zipWriter, name, buf.Bytes()); err != nil {
			zipWriter.Close()
			return fmt.Errorf("add %s to zip: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	}

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write(data)
	return err
}
