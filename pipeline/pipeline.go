// Package pipeline wires the L/G/V/A/H/E stages together into the single
// Process() entry point, mirroring goslice.go's GoSlice.Process(): load,
// transform stage by stage, write, with progress logged through
// Options.Logger at each step.
package pipeline

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"ArcOverhang/arcpacker"
	"ArcOverhang/clip"
	"ArcOverhang/config"
	"ArcOverhang/emitter"
	"ArcOverhang/gcodeio"
	"ArcOverhang/geom"
	"ArcOverhang/geomlift"
	"ArcOverhang/hilbertfill"
	"ArcOverhang/regionvalidator"
)

// ArcOverhang combines the clipping engine and options needed to run the
// post-processing pass over a full gcode file, the counterpart of
// goslice.go's GoSlice struct.
type ArcOverhang struct {
	Options *config.Options
	Engine  clip.Engine
}

// New returns an ArcOverhang with the default clipper-backed engine,
// mirroring NewGoSlice's all-built-in-implementations constructor.
func New(options *config.Options) *ArcOverhang {
	return &ArcOverhang{
		Options: options,
		Engine:  clip.NewEngine(),
	}
}

// Process runs the full pipeline over gcode read from r and writes the
// rewritten gcode to w. Mirrors GoSlice.Process()'s stage sequence and
// main()'s outer loop.
func (a *ArcOverhang) Process(r io.Reader, w io.Writer) error {
	start := time.Now()
	log := a.Options.Logger

	lines, err := config.ReadLines(r)
	if err != nil {
		return err
	}

	settings := config.Defaults(config.FromSlicerBlock(lines))
	if err := config.Validate(settings, log); err != nil {
		return fmt.Errorf("incompatible slicer settings: %w", err)
	}
	a.Options.Settings = settings
	log.Printf("settings loaded\n")

	rng := rand.New(rand.NewSource(a.Options.Seed))

	startupLines, rawLayers := gcodeio.SplitLayers(lines)
	log.Printf("layers: %d\n", len(rawLayers))

	layers := make([]*gcodeio.Layer, len(rawLayers))
	lastFan := 0.0
	for i, raw := range rawLayers {
		l := gcodeio.NewLayer(i, raw)
		lastFan = l.SpotFanSetting(lastFan)
		layers[i] = l
	}

	allowedSpace := geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0),
		geom.NewPointMM(500, 0),
		geom.NewPointMM(500, 500),
		geom.NewPointMM(0, 500),
	})

	anyModified := false

	for idl, layer := range layers {
		if idl < 1 {
			continue
		}

		layer.ExtractFeatures()

		bridgeChains := geomlift.BridgeInfillChains(layer, settings.TravelSpeedMMPerMin)
		bridgePolys := geomlift.BridgePolygons(a.Engine, bridgeChains, settings.ExtendIntoPerimeterMM)
		bridgePolys = geomlift.MergePolys(a.Engine, bridgePolys)

		overhangLines := geomlift.OverhangPerimeterLines(layer)

		validated := regionvalidator.Validate(bridgePolys, overhangLines, regionvalidator.Options{
			CheckForAllowedSpace: settings.CheckForAllowedSpace,
			AllowedSpace:         allowedSpace,
			MinAreaMM2:           settings.MinAreaMM2,
			MinBridgeLengthMM:    settings.MinBridgeLengthMM,
		})

		modify := false
		var arcGcodeAll []string
		var deleteRanges []emitter.DeleteRange

		if len(validated) > 0 {
			modify = true
			anyModified = true
			log.Printf("overhang found layer %d: %d region(s), Z: %.2f\n", idl, len(validated), layer.Z)

			maxZ := layer.Z + settings.SpecialCoolingZDistMM
			idOffset := 1
			currZ := layer.Z
			var validPolys geom.MultiPolygon
			for _, res := range validated {
				validPolys = append(validPolys, res.Polygon)
			}
			for currZ <= maxZ && idl+idOffset <= len(layers)-1 {
				currZ = layers[idl+idOffset].Z
				layers[idl+idOffset].OldPolys = append(layers[idl+idOffset].OldPolys, validPolys...)
				idOffset++
			}

			prevLayer := layers[idl-1]
			prevLayer.ExtractFeatures()
			externalPerimeters := geomlift.ExternalPerimeters(prevLayer)

			eSteps := config.CalcEStepsPerMM(settings, 0)

			for _, res := range validated {
				startLine, boundaryWithoutStart := makeStartLine(a.Engine, externalPerimeters, res.Polygon)
				if len(startLine) == 0 {
					log.Printf("layer %d: no start line found for region, skipping\n", idl)
					continue
				}

				packed := arcpacker.PackRegion(arcpacker.Options{
					Engine:                       a.Engine,
					PointsPerCircle:              settings.PointsPerCircle,
					ArcWidthMM:                   settings.ArcWidthMM,
					ArcCenterOffsetMM:            settings.ArcCenterOffsetMM,
					RMaxMM:                       settings.RMaxMM,
					MaxDistanceFromPerimeterMM:   settings.MaxDistanceFromPerimeterMM,
					MinStartArcs:                 settings.MinStartArcs,
					NozzleDiameterMM:             settings.NozzleDiameterMM,
					SafetyBreakMaxArcs:           settings.SafetyBreakMaxArcNumber,
					UseLeastAmountOfCenterPoints: settings.UseLeastAmountOfCenterPoints,
					Rand:                         rng,
				}, res.Polygon, startLine, boundaryWithoutStart)

				if packed.FillPercent < settings.WarnBelowThisFillingPercentage {
					log.Printf("layer %d: overhang area only %.0f%% filled, consider adjusting ExtendIntoPerimeter/MaxDistanceFromPerimeter/ArcCenterOffset\n", idl, packed.FillPercent)
				}

				arcGcode := emitter.ArcFamilyToGcode(packed, eSteps, emitter.ArcOptions{
					ExtendArcDistMM:             settings.ExtendArcDistMM,
					ArcSlowDownBelowDurationSec: settings.ArcSlowDownBelowThisDurationSec,
					ArcMinPrintSpeedMMPerMin:    settings.ArcMinPrintSpeedMMPerMin,
					ArcPrintSpeedMMPerMin:       settings.ArcPrintSpeedMMPerMin,
					ArcTravelFeedRateMMPerMin:   settings.ArcTravelFeedRateMMPerMin,
					GCodeArcPtMinDistMM:         settings.GCodeArcPtMinDistMM,
					RetractLengthMM:             settings.RetractLengthMM,
					RetractSpeedMMPerSec:        settings.RetractSpeedMMPerSec,
					TimeLapseEveryNArcs:         settings.TimeLapseEveryNArcs,
				})
				arcGcodeAll = append(arcGcodeAll, arcGcode...)
			}

			deleteRanges = append(deleteRanges, emitter.PrepareDeletion(layer, "Bridge", validPolys)...)
		}

		var hilbertGcode []string
		if len(layer.OldPolys) > 0 {
			modify = true
			anyModified = true
			log.Printf("oldpolys found in layer: %d\n", idl)

			solidChains := geomlift.SolidInfillChains(layer, settings.TravelSpeedMMPerMin, layer.OldPolys)
			solidPolys := geomlift.SolidInfillPolygons(a.Engine, solidChains, settings.ExtendIntoPerimeterMM)
			solidPolys = geomlift.MergePolys(a.Engine, solidPolys)

			eSteps := config.CalcEStepsPerMM(settings, layer.Height)
			var allChains []hilbertfill.Chain
			for _, poly := range solidPolys {
				chains := hilbertfill.Generate(poly, hilbertfill.Options{
					SolidInfillExtrusionWidthMM: settings.SolidInfillExtrusionWidthMM,
					FillingPercentage:           settings.HilbertFillingPercentage,
					InfillPrintSpeedMMPerMin:    settings.AboveArcsInfillPrintSpeedMMPerMin,
					TravelEveryNSeconds:         settings.HilbertTravelEveryNSeconds,
					LayerNumber:                 idl,
				}, func(c []hilbertfill.Chain) {
					rng.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
				})
				allChains = append(allChains, chains...)
			}
			hilbertGcode = emitter.HilbertToGcode(allChains, eSteps, emitter.HilbertOptions{
				ArcTravelFeedRateMMPerMin:         settings.ArcTravelFeedRateMMPerMin,
				AboveArcsInfillPrintSpeedMMPerMin: settings.AboveArcsInfillPrintSpeedMMPerMin,
				RetractLengthMM:                   settings.RetractLengthMM,
				RetractSpeedMMPerSec:              settings.RetractSpeedMMPerSec,
			})

			deleteRanges = append(deleteRanges, emitter.PrepareDeletion(layer, ":Solid", layer.OldPolys)...)
		}

		if modify {
			result := emitter.Splice(layer, arcGcodeAll, hilbertGcode, deleteRanges, settings.ArcFanSpeed, emitter.CoolingOptions{
				DetectionDistanceMM:             settings.CoolingSettingDetectionDistanceMM,
				AboveArcsFanSpeed:               settings.AboveArcsFanSpeed,
				AboveArcsPerimeterSpeedMMPerMin: settings.AboveArcsPerimeterPrintSpeedMMPerMin,
				ApplyToWholeLayer:               settings.ApplyAboveFanSpeedToWholeLayer,
				OriginalFanSpeed:                layer.Fan,
				OldPolys:                        layer.OldPolys,
			}, len(layer.OldPolys) > 0)
			layer.Lines = result.Lines
		}
	}

	log.Printf("layers modified: %v\n", anyModified)

	out := strings.Join(startupLines, "\n")
	if out != "" {
		out += "\n"
	}
	for _, l := range layers {
		out += strings.Join(l.Lines, "\n")
		if len(l.Lines) > 0 {
			out += "\n"
		}
	}

	if _, err := io.WriteString(w, out); err != nil {
		return err
	}

	log.Printf("full processing time: %v\n", time.Since(start))
	return nil
}

// makeStartLine finds the portion of poly's boundary coincident with the
// previous layer's external perimeter polygons, i.e. the arc's start line,
// and the rest of the boundary. Mirrors Layer.make_start_line_string.
func makeStartLine(engine clip.Engine, externalPerimeters []geom.Path, poly geom.Polygon) (startLine geom.Path, boundaryWithoutStart geom.Paths) {
	for _, ep := range externalPerimeters {
		coincident, rest := clipBoundaryAgainstPerimeter(engine, ep, poly)
		if len(coincident) > 0 {
			return coincident, rest
		}
	}
	return nil, poly.Boundary()
}

// clipBoundaryAgainstPerimeter tests whether ep — a closed external-
// perimeter polygon traced from the previous layer's gcode — overlaps poly
// by a real area, not a hairline: ep is buffered by a tiny epsilon only to
// close numeric gaps (mirrors ep.buffer(1e-2) in make_start_line_string),
// then intersected with poly to get the start area. Within that start area,
// the portion of poly's own boundary is the start line: the edge of the
// region that sits over already-printed perimeter, a safe place to begin
// the arc (mirrors start_area.boundary.intersection(poly.boundary.buffer(1e-2))).
func clipBoundaryAgainstPerimeter(engine clip.Engine, ep geom.Path, poly geom.Polygon) (geom.Path, geom.Paths) {
	epPoly := engine.BufferPolygon(geom.NewPolygon(ep).AsMultiPolygon(), 1e-2)
	startArea, ok := engine.Intersection(epPoly, poly.AsMultiPolygon())
	if !ok || len(startArea) == 0 {
		return nil, nil
	}

	boundary := poly.Boundary()
	if len(boundary) == 0 {
		return nil, nil
	}
	outline := boundary[0]

	var coincidentAll geom.Path
	var restAll geom.Paths
	for _, area := range startArea {
		onPerimeter, rest := coincidentEdgesAgainstPolygon(outline, area)
		if len(onPerimeter) > 0 {
			coincidentAll = append(coincidentAll, onPerimeter...)
			restAll = append(restAll, rest...)
		}
	}
	if len(coincidentAll) == 0 {
		// No outline edge lies on the start area: the start area's own
		// outline is the start line and the whole region boundary is the
		// boundary line.
		return startArea[0].Boundary()[0], boundary
	}
	return coincidentAll, restAll
}

func coincidentEdgesAgainstPolygon(ring geom.Path, poly geom.Polygon) (geom.Path, geom.Paths) {
	var on geom.Path
	var rest geom.Paths
	var curRest geom.Path
	for i := 1; i < len(ring); i++ {
		a, b := ring[i-1], ring[i]
		if poly.DistanceToBoundaryMM(a) < 0.02 && poly.DistanceToBoundaryMM(b) < 0.02 {
			if len(on) == 0 {
				on = append(on, a)
			}
			on = append(on, b)
			if len(curRest) > 1 {
				rest = append(rest, curRest)
			}
			curRest = nil
		} else {
			if len(curRest) == 0 {
				curRest = append(curRest, a)
			}
			curRest = append(curRest, b)
		}
	}
	if len(curRest) > 1 {
		rest = append(rest, curRest)
	}
	return on, rest
}
