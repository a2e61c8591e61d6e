// Package config implements the C stage: pulling PrusaSlicer's
// "prusaslicer_config" block out of a gcode file into a typed settings
// struct, merging tuning defaults, and validating the combination is one
// this pipeline can run against. Mirrors original_source's
// make_full_setting_dict, read_settings_from_gcode2dict and
// check_for_necessary_settings.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

// Settings holds every tunable value the pipeline needs, combining what
// PrusaSlicer wrote into the gcode header with the tool's own tuning
// defaults (add_manual_settings_dict in original_source).
type Settings struct {
	// Pulled from the slicer config block.
	NozzleDiameterMM            float64
	FilamentDiameterMM          float64
	ExtrusionWidthMM            float64
	PerimeterExtrusionWidthMM   float64
	SolidInfillExtrusionWidthMM float64
	InfillExtrusionWidthMM      float64
	UseRelativeEDistances       bool
	UseVolumetricE              bool
	OverhangsEnabled            bool
	BridgeSpeedMMPerSec         float64
	InfillFirst                 bool
	ExternalPerimetersFirst     bool
	AvoidCrossingPerimeters     bool
	RetractLengthMM             float64
	RetractSpeedMMPerSec        float64
	TravelSpeedMMPerMin         float64

	// Tuning defaults (add_manual_settings_dict).
	CheckForAllowedSpace           bool
	ArcCenterOffsetMM               float64
	ArcMinPrintSpeedMMPerMin         float64
	ArcPrintSpeedMMPerMin            float64
	ArcTravelFeedRateMMPerMin        float64
	ExtendIntoPerimeterMM            float64
	MaxDistanceFromPerimeterMM       float64
	MinAreaMM2                       float64
	MinBridgeLengthMM                float64
	RMaxMM                           float64
	TimeLapseEveryNArcs              int
	AboveArcsFanSpeed                float64
	AboveArcsInfillPrintSpeedMMPerMin float64
	AboveArcsPerimeterFanSpeed        float64
	AboveArcsPerimeterPrintSpeedMMPerMin float64
	ApplyAboveFanSpeedToWholeLayer    bool
	CoolingSettingDetectionDistanceMM float64
	SpecialCoolingZDistMM             float64
	ArcExtrusionMultiplier            float64
	ArcSlowDownBelowThisDurationSec   float64
	ArcWidthMM                        float64
	ArcFanSpeed                       float64
	CornerImportanceMultiplier        float64
	DistanceBetweenPointsOnStartLineMM float64
	GCodeArcPtMinDistMM               float64
	ExtendArcDistMM                   float64
	HilbertFillingPercentage          float64
	HilbertInfillExtrusionMultiplier  float64
	HilbertTravelEveryNSeconds        float64
	MinStartArcs                      int
	PointsPerCircle                   int
	SafetyBreakMaxArcNumber           int
	WarnBelowThisFillingPercentage    float64
	UseLeastAmountOfCenterPoints      bool
	PrintDebugVerification            bool
}

// Defaults merges the manual tuning defaults into settings already read
// from a slicer config block. Mirrors make_full_setting_dict.
func Defaults(s Settings) Settings {
	if s.ArcCenterOffsetMM == 0 {
		s.ArcCenterOffsetMM = 2
	}
	if s.ArcMinPrintSpeedMMPerMin == 0 {
		s.ArcMinPrintSpeedMMPerMin = 0.5 * 60
	}
	if s.ArcPrintSpeedMMPerMin == 0 {
		s.ArcPrintSpeedMMPerMin = 1.5 * 60
	}
	if s.ArcTravelFeedRateMMPerMin == 0 {
		s.ArcTravelFeedRateMMPerMin = 30 * 60
	}
	if s.ExtendIntoPerimeterMM == 0 {
		s.ExtendIntoPerimeterMM = 1.5 * s.PerimeterExtrusionWidthMM
	}
	if s.MaxDistanceFromPerimeterMM == 0 {
		s.MaxDistanceFromPerimeterMM = 2 * s.PerimeterExtrusionWidthMM
	}
	if s.MinAreaMM2 == 0 {
		s.MinAreaMM2 = 50
	}
	if s.MinBridgeLengthMM == 0 {
		s.MinBridgeLengthMM = 5
	}
	if s.RMaxMM == 0 {
		s.RMaxMM = 110
	}
	if s.AboveArcsFanSpeed == 0 {
		s.AboveArcsFanSpeed = 25
	}
	if s.AboveArcsInfillPrintSpeedMMPerMin == 0 {
		s.AboveArcsInfillPrintSpeedMMPerMin = 10 * 60
	}
	if s.AboveArcsPerimeterFanSpeed == 0 {
		s.AboveArcsPerimeterFanSpeed = 25
	}
	if s.AboveArcsPerimeterPrintSpeedMMPerMin == 0 {
		s.AboveArcsPerimeterPrintSpeedMMPerMin = 3 * 60
	}
	s.ApplyAboveFanSpeedToWholeLayer = true
	if s.CoolingSettingDetectionDistanceMM == 0 {
		s.CoolingSettingDetectionDistanceMM = 5
	}
	if s.SpecialCoolingZDistMM == 0 {
		s.SpecialCoolingZDistMM = 3
	}
	if s.ArcExtrusionMultiplier == 0 {
		s.ArcExtrusionMultiplier = 1.35
	}
	if s.ArcSlowDownBelowThisDurationSec == 0 {
		s.ArcSlowDownBelowThisDurationSec = 3
	}
	if s.ArcWidthMM == 0 {
		s.ArcWidthMM = s.NozzleDiameterMM * 0.95
	}
	if s.ArcFanSpeed == 0 {
		s.ArcFanSpeed = 255
	}
	if s.CornerImportanceMultiplier == 0 {
		s.CornerImportanceMultiplier = 0.2
	}
	if s.DistanceBetweenPointsOnStartLineMM == 0 {
		s.DistanceBetweenPointsOnStartLineMM = 0.1
	}
	if s.GCodeArcPtMinDistMM == 0 {
		s.GCodeArcPtMinDistMM = 0.1
	}
	if s.ExtendArcDistMM == 0 {
		s.ExtendArcDistMM = 1.0
	}
	if s.HilbertFillingPercentage == 0 {
		s.HilbertFillingPercentage = 100
	}
	if s.HilbertInfillExtrusionMultiplier == 0 {
		s.HilbertInfillExtrusionMultiplier = 1.05
	}
	if s.HilbertTravelEveryNSeconds == 0 {
		s.HilbertTravelEveryNSeconds = 6
	}
	if s.MinStartArcs == 0 {
		s.MinStartArcs = 2
	}
	if s.PointsPerCircle == 0 {
		s.PointsPerCircle = 80
	}
	if s.SafetyBreakMaxArcNumber == 0 {
		s.SafetyBreakMaxArcNumber = 2000
	}
	if s.WarnBelowThisFillingPercentage == 0 {
		s.WarnBelowThisFillingPercentage = 90
	}
	s.UseLeastAmountOfCenterPoints = true
	return s
}

// Options bundles the run configuration: a logger (matching GoSlice's
// Options.Logger.Printf convention) plus the merged Settings, and a random
// seed for arcpacker's random start-point fallback and the Hilbert chain
// shuffle.
type Options struct {
	Logger   *log.Logger
	Settings Settings
	Seed     int64
}

// NewOptions returns Options with a default stderr logger, matching
// GoSlice's NewGoSlice default-logger pattern.
func NewOptions(s Settings) *Options {
	return &Options{
		Logger:   log.New(os.Stderr, "", log.LstdFlags),
		Settings: s,
	}
}

var tupleRe = func() func(string) (string, bool) {
	return func(v string) (string, bool) {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
			return v, true
		}
		if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
			return v, true
		}
		return v, false
	}
}()

// rawSettings is the raw key/value map extracted from the slicer config
// block, before typed conversion. Mirrors gcode_setting_dict.
type rawSettings map[string]string

// ReadSlicerConfigBlock scans gcode lines for the
// "; prusaslicer_config = begin" marker and everything after it, returning
// the raw "key = value" pairs found. Mirrors
// read_settings_from_gcode2dict's scan loop.
func ReadSlicerConfigBlock(lines []string) rawSettings {
	raw := rawSettings{}
	inBlock := false
	for _, line := range lines {
		if strings.Contains(line, "; prusaslicer_config = begin") {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		trimmed := strings.TrimRight(strings.TrimPrefix(strings.TrimSpace(line), ";"), "\n")
		parts := strings.SplitN(trimmed, "= ", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		raw[key] = parts[1]
	}
	return raw
}

func (r rawSettings) float(key string, fallback float64) float64 {
	v, ok := r[key]
	if !ok {
		return fallback
	}
	if firstOfTuple, isTuple := tupleRe(v); isTuple {
		v = firstTupleElement(firstOfTuple)
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (r rawSettings) percentOr(key string, nozzleDiameterMM, fallback float64) float64 {
	v, ok := r[key]
	if !ok {
		return fallback
	}
	if strings.Contains(v, "%") {
		pct := r.float(key, 0)
		return nozzleDiameterMM * (pct / 100)
	}
	return r.float(key, fallback)
}

func (r rawSettings) bool(key string) bool {
	v, ok := r[key]
	if !ok {
		return false
	}
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true"
}

func firstTupleElement(v string) string {
	v = strings.Trim(v, "()[]")
	parts := strings.Split(v, ",")
	if len(parts) == 0 {
		return v
	}
	return strings.TrimSpace(parts[0])
}

// FromSlicerBlock parses a raw config block into Settings, applying the
// percent-width resolution of read_settings_from_gcode2dict (e.g.
// perimeter_extrusion_width given as "200%" of the nozzle diameter).
func FromSlicerBlock(lines []string) Settings {
	raw := ReadSlicerConfigBlock(lines)
	var s Settings
	s.NozzleDiameterMM = raw.float("nozzle_diameter", 0.4)
	s.FilamentDiameterMM = raw.float("filament_diameter", 1.75)
	s.ExtrusionWidthMM = raw.percentOr("extrusion_width", s.NozzleDiameterMM, s.NozzleDiameterMM)
	s.PerimeterExtrusionWidthMM = raw.percentOr("perimeter_extrusion_width", s.NozzleDiameterMM, s.NozzleDiameterMM)
	s.SolidInfillExtrusionWidthMM = raw.percentOr("solid_infill_extrusion_width", s.NozzleDiameterMM, s.NozzleDiameterMM)
	s.InfillExtrusionWidthMM = raw.percentOr("infill_extrusion_width", s.NozzleDiameterMM, s.NozzleDiameterMM)
	s.UseRelativeEDistances = raw.bool("use_relative_e_distances")
	s.UseVolumetricE = raw.bool("use_volumetric_e")
	s.OverhangsEnabled = raw.bool("overhangs")
	s.BridgeSpeedMMPerSec = raw.float("bridge_speed", 2)
	s.InfillFirst = raw.bool("infill_first")
	s.ExternalPerimetersFirst = raw.bool("external_perimeters_first")
	s.AvoidCrossingPerimeters = raw.bool("avoid_crossing_perimeters")
	s.RetractLengthMM = raw.float("retract_length", 1)
	s.RetractSpeedMMPerSec = raw.float("retract_speed", 35)
	s.TravelSpeedMMPerMin = raw.float("travel_speed", 180) * 60
	return s
}

// Validate checks the combination of settings this pipeline requires to
// run at all, mirroring check_for_necessary_settings' hard failures. Soft
// warnings (bridge speed, infill_first, etc.) are logged, not returned as
// errors.
func Validate(s Settings, logger *log.Logger) error {
	if !s.UseRelativeEDistances {
		return fmt.Errorf("relative e-distances must be enabled in the slicer")
	}
	if s.ExtrusionWidthMM < 0.001 || s.PerimeterExtrusionWidthMM < 0.001 || s.SolidInfillExtrusionWidthMM < 0.001 {
		return fmt.Errorf("extrusion_width, perimeter_extrusion_width and solid_infill_extrusion_width must all be at least 0.001 mm")
	}
	if !s.OverhangsEnabled {
		return fmt.Errorf("overhang detection must be enabled in the slicer")
	}
	if logger == nil {
		return nil
	}
	if s.BridgeSpeedMMPerSec > 5 {
		logger.Printf("warning: bridge speed %.0f mm/s may cause warping, <=5mm/s is recommended", s.BridgeSpeedMMPerSec)
	}
	if s.InfillFirst {
		logger.Printf("warning: infill is set to print before perimeters, this can cause problems")
	}
	if s.ExternalPerimetersFirst {
		logger.Printf("warning: external perimeter prints before inner perimeters, worse overhang performance")
	}
	if !s.AvoidCrossingPerimeters {
		logger.Printf("warning: travel moves may cross outlines and cause arc-generation artefacts")
	}
	return nil
}

// ReadLines reads r line by line, preserving line endings the way the rest
// of the pipeline expects (trailing "\n" stripped, callers re-append it on
// output).
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// CalcEStepsPerMM computes the E-axis extrusion factor for a move, mirroring
// calc_e_steps_per_mm: with a layer height it models solid/hilbert infill
// cross-section, without one it models a round arc bead.
func CalcEStepsPerMM(s Settings, layerHeightMM float64) float64 {
	var eVol float64
	if layerHeightMM > 0 {
		w := s.InfillExtrusionWidthMM
		h := layerHeightMM
		eVol = (w-h)*h + math.Pi*(h/2)*(h/2)*nonZero(s.HilbertInfillExtrusionMultiplier, 1)
	} else {
		r := s.NozzleDiameterMM / 2
		eVol = r * r * math.Pi * nonZero(s.ArcExtrusionMultiplier, 1)
	}
	if s.UseVolumetricE {
		return eVol
	}
	fr := s.FilamentDiameterMM / 2
	return eVol / (fr * fr * math.Pi)
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
