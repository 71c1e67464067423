/*
Copyright 2025 The Catalog Ingestor contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package log builds the zap loggers used by the ingestor and bridges them
// into controller-runtime.
package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	ctrlruntimelog "sigs.k8s.io/controller-runtime/pkg/log"
	ctrlruntimelzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// RootName names the root logger; components derive theirs with Named.
const RootName = "catalog-ingestor"

type Format string

const (
	FormatJSON    Format = "JSON"
	FormatConsole Format = "Console"
)

var AvailableFormats = []Format{FormatJSON, FormatConsole}

func (f *Format) Type() string {
	return "format"
}

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) Set(s string) error {
	for _, format := range AvailableFormats {
		if strings.EqualFold(s, string(format)) {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("invalid format %q", s)
}

// Options are the logging command-line options.
type Options struct {
	// Debug enables the debug level, which also reports per resource-type
	// fetch failures.
	Debug bool
	// Format is JSON or Console.
	Format Format
}

func NewDefaultOptions() Options {
	return Options{
		Debug:  false,
		Format: FormatJSON,
	}
}

func (o *Options) AddPFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Debug, "log-debug", o.Debug, "Enables debug logging, including per resource-type fetch failures")
	fs.Var(&o.Format, "log-format", "Log format, one of JSON or Console")
}

func (o *Options) Validate() error {
	if !slices.Contains(AvailableFormats, o.Format) {
		return fmt.Errorf("invalid log-format specified %q; available: %+v", o.Format, AvailableFormats)
	}
	return nil
}

// Setup builds the root logger, tagged with the ingestor version, and
// installs it as the controller-runtime logger.
func Setup(o Options, version string) *zap.SugaredLogger {
	rawLog := New(o, os.Stderr).Named(RootName).With(zap.String("version", version))
	ctrlruntimelog.SetLogger(zapr.NewLogger(rawLog.WithOptions(zap.AddCallerSkip(1))))
	return rawLog.Sugar()
}

// New builds a logger writing to w.
func New(o Options, w io.Writer) *zap.Logger {
	sink := zapcore.AddSync(w)

	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if o.Debug {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	if o.Format == FormatConsole {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	coreLog := zapcore.NewCore(&ctrlruntimelzap.KubeAwareEncoder{Encoder: enc}, sink, lvl)
	return zap.New(coreLog, zap.AddCaller(), zap.ErrorOutput(sink))
}
