// Package models resolves whisper model identifiers to local weight files,
// fetching them from the upstream release mirror when missing.
package models

import "fmt"

const downloadURLFormat = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-%s.bin"

// Source tags where a resolved model file came from.
type Source string

const (
	SourceBundled Source = "bundled"
	SourceCached  Source = "cached"
	SourceCustom  Source = "custom"
)

// Info describes one known model.
type Info struct {
	ID          string // "small", "small.en", ...
	DisplayName string
	SizeBytes   int64
	English     bool // .en variant, English only
}

// FileName returns the weight file name for the model.
func (i Info) FileName() string { return "ggml-" + i.ID + ".bin" }

// URL returns the remote fetch location for the model.
func (i Info) URL() string { return fmt.Sprintf(downloadURLFormat, i.ID) }

// catalog lists the supported whisper.cpp models in size order.
// Sizes are the published ggml file sizes, used for download estimates.
var catalog = []Info{
	{ID: "tiny", DisplayName: "Tiny", SizeBytes: 77_691_713},
	{ID: "tiny.en", DisplayName: "Tiny (English)", SizeBytes: 77_704_715, English: true},
	{ID: "base", DisplayName: "Base", SizeBytes: 147_951_465},
	{ID: "base.en", DisplayName: "Base (English)", SizeBytes: 147_964_211, English: true},
	{ID: "small", DisplayName: "Small", SizeBytes: 487_601_967},
	{ID: "small.en", DisplayName: "Small (English)", SizeBytes: 487_614_201, English: true},
	{ID: "medium", DisplayName: "Medium", SizeBytes: 1_533_774_781},
	{ID: "medium.en", DisplayName: "Medium (English)", SizeBytes: 1_533_787_331, English: true},
	{ID: "large-v3", DisplayName: "Large V3", SizeBytes: 3_094_623_691},
	{ID: "large-v3-turbo", DisplayName: "Large V3 Turbo", SizeBytes: 1_624_417_792},
}

// Known returns catalog info for id.
func Known(id string) (Info, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Info{}, false
}

// Catalog returns the supported models in size order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}
