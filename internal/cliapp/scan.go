package cliapp

import (
	"context"
	"image"
	"os"
	"strconv"

	"github.com/scanarium/scanarium-go/internal/acquire"
	"github.com/scanarium/scanarium-go/internal/actorpipeline"
	"github.com/scanarium/scanarium-go/internal/commandlog"
	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/preprocess"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/rectify"
	"github.com/scanarium/scanarium-go/internal/reindex"
	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanconfig"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// ScanArgs configures one scan attempt; Source overrides scan.source when set, the
// way a CGI upload handler would inject an already-received file path
// instead of reading a live capture device.
type ScanArgs struct {
	Source string // "cam:<N>", "image:<path>", or a bare path; empty reads scan.source
}

// scanResources bundles the pieces RunScan wires together once per
// invocation so its helper methods don't each need the full Bootstrap.
type scanResources struct {
	cfg         *scanconfig.Config
	env         *runenv.Env
	fineGrained bool
	contrasts   []float64
	stillCfg    acquire.StillFileConfig
	converter   acquire.Converter
}

// RunScan performs one full scan attempt: acquire, preprocess, detect and
// parse the QR payload, then dispatch into either a pseudo-command or the
// full rectify/orient/mask/crop/balance/persist actor pipeline. A
// configuration error while building the scan resources is returned as a
// raw error; every later failure is captured in the returned
// *runenv.Result envelope and the command log instead.
func (b *Bootstrap) RunScan(args ScanArgs) (*runenv.Result, error) {
	res, err := b.buildScanResources()
	if err != nil {
		return nil, err
	}
	dispatcher := b.buildDispatcher(res)

	data, err := b.readSource(args)
	if err != nil {
		return b.dispatchFailure(res, err), nil
	}

	img, err := acquire.LoadStillFile(context.Background(), data, res.stillCfg, res.converter, res.env, res.fineGrained)
	if err != nil {
		return b.dispatchFailure(res, err), nil
	}

	minWidth, _ := res.cfg.GetInt("scan", "min_raw_width", scanconfig.AllowMissing(), scanconfig.WithDefault(0))
	if minWidth > 0 {
		if err := acquire.MinRawWidth(img, minWidth); err != nil {
			return b.dispatchFailure(res, err), nil
		}
	}

	prepared, err := preprocessScan(res.cfg, img)
	if err != nil {
		return b.dispatchFailure(res, err), nil
	}

	detection, err := qrscan.Detect(prepared.Gray, res.contrasts)
	if err != nil {
		return b.dispatchFailure(res, err), nil
	}

	payload, err := parsePayload(detection.Text, b.Mappings, b.ConfigDir)
	if err != nil {
		return b.dispatchFailure(res, err), nil
	}

	result := dispatcher.Dispatch(payload, func(p qrscan.Payload) (string, error) {
		return b.runActorPipeline(res, img, prepared, detection, p)
	})
	return result, nil
}

// parsePayload applies the expand-prefix -> reduce -> sanitize -> parse
// chain to a raw decoded QR string.
func parsePayload(raw string, mappings []qrscan.MappingEntry, confDir string) (qrscan.Payload, error) {
	expanded, err := qrscan.ExpandPrefix(raw, mappings, confDir)
	if err != nil {
		return qrscan.Payload{}, err
	}
	return qrscan.ParsePayload(qrscan.Sanitize(expanded))
}

// dispatchFailure funnels a pre-dispatch failure (acquisition, detection,
// grammar) through the same command-log/result envelope path a successful
// dispatch uses, so every scan attempt produces exactly one record
// regardless of which stage failed.
func (b *Bootstrap) dispatchFailure(res *scanResources, err error) *runenv.Result {
	err = scanerr.Collapse(err, res.fineGrained, scanerr.UnknownQrError())
	result := runenv.NewResult(nil, err)
	commandlog.New(b.commandLogPath()).Append(
		commandlog.RecordFromResult(false, nil, nil, result.Code, result.Message, result.UUID, ""))
	return result
}

func (b *Bootstrap) buildScanResources() (*scanResources, error) {
	contrastsRaw, err := b.Config.GetString("scan", "contrasts", scanconfig.AllowMissing(), scanconfig.WithDefault("1"))
	if err != nil {
		return nil, err
	}
	contrasts, err := qrscan.ParseContrasts(contrastsRaw)
	if err != nil {
		return nil, err
	}

	stillCfg := acquire.StillFileConfig{
		Permitted: map[acquire.Format]bool{},
		Pipelines: map[acquire.Format]acquire.Pipeline{},
	}
	for _, format := range []acquire.Format{acquire.FormatPNG, acquire.FormatJPEG, acquire.FormatPDF, acquire.FormatGIF, acquire.FormatBMP} {
		permitted, _ := b.Config.GetBool("scan", "permit_file_type_"+string(format), scanconfig.AllowMissing(), scanconfig.WithDefault(true))
		stillCfg.Permitted[format] = permitted
		pipelineName, _ := b.Config.GetString("scan", "pipeline_file_type_"+string(format), scanconfig.AllowMissing(), scanconfig.WithDefault(string(acquire.PipelineNative)))
		stillCfg.Pipelines[format] = acquire.Pipeline(pipelineName)
	}

	env := &runenv.Env{
		Config:      b.Config,
		ScenesDir:   b.ScenesDir,
		DynamicDir:  b.DynamicDir,
		ConfigDir:   b.ConfigDir,
		FineGrained: b.FineGrainedErrors,
	}

	return &scanResources{
		cfg:         b.Config,
		env:         env,
		fineGrained: b.FineGrainedErrors(),
		contrasts:   contrasts,
		stillCfg:    stillCfg,
		converter:   externalConverter{env: env},
	}, nil
}

// readSource resolves scan.source (or args.Source) and reads its raw bytes.
// Capture-device sources are rejected here; an embedder wanting live
// capture supplies its own acquire.Device and calls acquire.CaptureFrame
// ahead of RunScan, passing the grabbed frame in as an image source.
func (b *Bootstrap) readSource(args ScanArgs) ([]byte, error) {
	raw := args.Source
	if raw == "" {
		v, err := b.Config.GetString("scan", "source", scanconfig.AllowMissing())
		if err != nil {
			return nil, err
		}
		raw = v
	}
	source, err := acquire.ParseSource(raw)
	if err != nil {
		return nil, err
	}
	if source.Kind == acquire.SourceCamera {
		return nil, scanerr.New(scanerr.CapNotOpen,
			"no capture device is configured for {source}", map[string]any{"source": raw})
	}
	data, err := os.ReadFile(source.Value)
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not read source file {path}", map[string]any{"path": source.Value})
	}
	return data, nil
}

func preprocessScan(cfg *scanconfig.Config, img image.Image) (preprocess.Result, error) {
	p := preprocess.New(cfg)

	scaledHeight, _ := cfg.GetInt("scan", "max_raw_height", scanconfig.AllowMissing(), scanconfig.WithDefault(1200))
	scaledWidth, _ := cfg.GetInt("scan", "max_raw_width", scanconfig.AllowMissing(), scanconfig.WithDefault(1600))
	tripHeight, _ := cfg.GetInt("scan", "max_raw_height_trip", scanconfig.AllowMissing(), scanconfig.WithDefault(scaledHeight))
	tripWidth, _ := cfg.GetInt("scan", "max_raw_width_trip", scanconfig.AllowMissing(), scanconfig.WithDefault(scaledWidth))

	opts := preprocess.Options{
		ScaledHeight: &scaledHeight, ScaledWidth: &scaledWidth,
		TripHeight: &tripHeight, TripWidth: &tripWidth,
		ContrastFactor: 1,
	}

	calibFile, _ := cfg.GetString("scan", "calibration_xml_file",
		scanconfig.AllowMissing(), scanconfig.AllowEmpty(), scanconfig.WithDefault(""))
	if calibFile != "" {
		cam, dist, err := preprocess.LoadCalibrationXML(calibFile)
		if err != nil {
			return preprocess.Result{}, err
		}
		opts.CameraMatrix, opts.DistCoeffs = cam, dist
	}

	var maxBrightness image.Image
	brightnessFile, _ := cfg.GetString("scan", "max_brightness",
		scanconfig.AllowMissing(), scanconfig.AllowEmpty(), scanconfig.WithDefault(""))
	if brightnessFile != "" {
		f, err := os.Open(brightnessFile)
		if err == nil {
			if decoded, _, decodeErr := image.Decode(f); decodeErr == nil {
				maxBrightness = decoded
			}
			f.Close()
		}
	}

	return p.Prepare(img, opts, maxBrightness), nil
}

// runActorPipeline is the Dispatcher's "default" run callback: rectify the
// original image against the QR's bounding rect, orient it, resolve and
// apply the mask, crop, white-balance and persist.
func (b *Bootstrap) runActorPipeline(res *scanResources, original image.Image, prepared preprocess.Result, detection qrscan.Detection, payload qrscan.Payload) (string, error) {
	opts := rectify.Options{
		Contrasts:           res.contrasts,
		BlurSize:            intOpt(res.cfg, "canny_blur_size", 0),
		CannyThreshold1:     floatOpt(res.cfg, "canny_threshold_1", 50),
		CannyThreshold2:     floatOpt(res.cfg, "canny_threshold_2", 150),
		DecreasingArea:      false,
		RequiredPoints:      rectify.QRParentRequiredPoints(detection.Rect),
		CornerWindowHalf:    intOpt(res.cfg, "corner_refinement_size", 5),
		CornerMaxIterations: intOpt(res.cfg, "corner_refinement_iteration_bound", 30),
		CornerAccuracy:      floatOpt(res.cfg, "corner_refinement_accuracy", 0.1),
	}

	warped, _, err := rectify.Rectify(original, prepared.Gray, prepared.ScaleFactor, opts)
	if err != nil {
		return "", err
	}

	redetect := func(candidate image.Image) (imaging.Rect, error) {
		d, err := qrscan.Detect(imaging.ToGray(candidate), res.contrasts)
		if err != nil {
			return imaging.Rect{}, err
		}
		return d.Rect, nil
	}

	rectifiedRect, err := redetect(warped)
	if err != nil {
		return "", err
	}
	oriented, _, err := actorpipeline.Orient(warped, rectifiedRect, redetect)
	if err != nil {
		return "", err
	}

	masks := actorpipeline.FileMaskSource{ScenesDir: b.ScenesDir}
	mask, meta, err := masks.Mask(payload.Command, payload.Parameter, payload.Version)
	if err != nil {
		return "", err
	}

	maxFinalW := intOpt(res.cfg, "max_final_width", 2000)
	maxFinalH := intOpt(res.cfg, "max_final_height", 2000)
	wb, _ := res.cfg.GetString("scan", "white_balance", scanconfig.AllowMissing(), scanconfig.WithDefault(string(actorpipeline.WhiteBalanceNone)))

	pipeline := &actorpipeline.Pipeline{
		Masks:      masks,
		Reindex:    reindex.Reindexer{},
		Thumbnail:  actorpipeline.NoopThumbnailer{},
		DynamicDir: b.DynamicDir,
	}

	return pipeline.Process(oriented, mask, meta, actorpipeline.Options{
		Scene: payload.Command, Actor: payload.Parameter, Version: payload.Version,
		WhiteBalance: actorpipeline.WhiteBalanceMode(wb),
		MaxFinalW:    maxFinalW, MaxFinalH: maxFinalH,
	})
}

func (b *Bootstrap) buildDispatcher(res *scanResources) *actorpipeline.Dispatcher {
	return &actorpipeline.Dispatcher{
		Pipeline: &actorpipeline.Pipeline{
			Masks: actorpipeline.FileMaskSource{ScenesDir: b.ScenesDir}, Reindex: reindex.Reindexer{}, DynamicDir: b.DynamicDir,
		},
		System:      actorpipeline.NoopSystemController{},
		Log:         commandlog.New(b.commandLogPath()),
		Env:         res.env,
		FineGrained: res.fineGrained,
	}
}

func intOpt(cfg *scanconfig.Config, key string, def int) int {
	v, _ := cfg.GetInt("scan", key, scanconfig.AllowMissing(), scanconfig.WithDefault(def))
	return v
}

func floatOpt(cfg *scanconfig.Config, key string, def float64) float64 {
	v, _ := cfg.GetFloat("scan", key, scanconfig.AllowMissing(), scanconfig.WithDefault(def))
	return v
}

// externalConverter wraps runenv.Env.Run to satisfy acquire.Converter,
// shelling out to the system's raster/PDF converters rather than reimplementing a PDF
// rasterizer for the still-image-ingress path; only the sheet generator's
// own SVG/PDF output is produced in-process, since that is the path this
// module fully owns end to end.
type externalConverter struct {
	env *runenv.Env
}

func (c externalConverter) ConvertToJPEG(ctx context.Context, input []byte, dpi int, quality int) ([]byte, error) {
	return c.runToJPEG(ctx, "convert", []string{
		"-density", strconv.Itoa(dpi), "-background", "white", "-flatten",
		"-quality", strconv.Itoa(quality),
	}, input)
}

func (c externalConverter) PdftoppmToJPEG(ctx context.Context, input []byte, dpi int, quality int) ([]byte, error) {
	return c.runToJPEG(ctx, "pdftoppm", []string{
		"-jpeg", "-r", strconv.Itoa(dpi), "-jpegopt", "quality=" + strconv.Itoa(quality), "-singlefile",
	}, input)
}

func (c externalConverter) runToJPEG(ctx context.Context, name string, args []string, input []byte) ([]byte, error) {
	tmpIn, err := os.CreateTemp("", "scanarium-convert-*")
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineOsError, "could not create temporary input file", nil)
	}
	defer os.Remove(tmpIn.Name())
	if _, err := tmpIn.Write(input); err != nil {
		tmpIn.Close()
		return nil, scanerr.New(scanerr.PipelineOsError, "could not write temporary input file", nil)
	}
	tmpIn.Close()

	out, err := c.env.Run(ctx, name, append(append([]string{}, args...), tmpIn.Name()), runenv.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
