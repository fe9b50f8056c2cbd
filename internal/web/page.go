package web

import (
	"html/template"
	"strconv"

	"prodl/internal/model"
	"prodl/internal/resolver"
)

// formValues is everything the page form posts; it is echoed back into
// every rendered page.
type formValues struct {
	URL        string
	Mode       string
	Ext        string
	Resolution int
	FPS        int
	Quality    string
}

func defaultForm() formValues {
	return formValues{
		Mode:    string(model.ModeVideo),
		Ext:     "mp4",
		FPS:     30,
		Quality: resolver.QualityKey(resolver.DefaultQuality),
	}
}

func (f formValues) request() model.DownloadRequest {
	req := model.DownloadRequest{
		URL:               f.URL,
		Mode:              model.ParseMode(f.Mode),
		TargetExtension:   f.Ext,
		AudioQualityLabel: f.Quality,
	}
	if req.Mode == model.ModeVideo {
		req.ResolutionCap = f.Resolution
		req.FrameRate = f.FPS
	}
	return req
}

type option struct {
	Value string
	Label string
}

type page struct {
	Form        formValues
	Meta        *model.Metadata
	Resolutions []int
	FrameRates  []int
	Containers  []option
	Audio       []option
	Qualities   []option
	Lossless    bool
	Error       string
}

func newPage(f formValues, meta *model.Metadata) page {
	p := page{
		Form:       f,
		Meta:       meta,
		FrameRates: resolver.FrameRates,
		Lossless:   model.DownloadRequest{TargetExtension: f.Ext}.IsLosslessAudio(),
	}
	if meta != nil {
		p.Resolutions = resolver.AvailableResolutions(meta.Formats)
	}
	for _, c := range resolver.VideoContainers() {
		p.Containers = append(p.Containers, option{Value: c.Ext, Label: c.Label})
	}
	for _, a := range resolver.AudioFormats() {
		p.Audio = append(p.Audio, option{Value: a.Ext, Label: a.Label})
	}
	for _, q := range resolver.Qualities() {
		p.Qualities = append(p.Qualities, option{Value: resolver.QualityKey(q), Label: q.Label})
	}
	return p
}

var templateFuncs = template.FuncMap{
	"itoa": strconv.Itoa,
}
