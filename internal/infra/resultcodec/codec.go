package resultcodec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fiapx/fiapx-pose-service/internal/pose"
	"github.com/vmihailenco/msgpack/v5"
)

type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case JSON, MsgPack:
		return f, nil
	}
	return "", fmt.Errorf("unknown result format %q", s)
}

func (f Format) Extension() string {
	if f == MsgPack {
		return "msgpack"
	}
	return "json"
}

func (f Format) ContentType() string {
	if f == MsgPack {
		return "application/msgpack"
	}
	return "application/json"
}

func Encode(w io.Writer, res *pose.Result, f Format) error {
	var err error
	switch f {
	case JSON:
		err = json.NewEncoder(w).Encode(res)
	case MsgPack:
		err = msgpack.NewEncoder(w).Encode(res)
	default:
		return fmt.Errorf("unknown result format %q", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s result: %w", f, err)
	}
	return nil
}

func Decode(r io.Reader, f Format) (*pose.Result, error) {
	res := &pose.Result{}
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(res)
	case MsgPack:
		err = msgpack.NewDecoder(r).Decode(res)
	default:
		return nil, fmt.Errorf("unknown result format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", f, err)
	}
	return res, nil
}
