// Package app holds the process-scoped picker state: the two image views,
// the landmark session, export and change events. It has no UI dependency.
package app

import (
	"errors"
	"fmt"
	goimage "image"
	"sync"

	"landmark-picker/internal/config"
	"landmark-picker/internal/export"
	"landmark-picker/internal/image"
	"landmark-picker/internal/landmark"
	"landmark-picker/internal/mask"
	"landmark-picker/pkg/geometry"

	"github.com/rs/zerolog"
)

var (
	// ErrBusy is returned by mutating operations while an export runs.
	ErrBusy = errors.New("an export is in progress")
	// ErrNotArmed is returned for clicks while landmark picking is off.
	ErrNotArmed = errors.New("landmark picking is not active")
	// ErrNoImage is returned when an operation needs an image that has not
	// been opened.
	ErrNoImage = image.ErrNoImage
)

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded      EventType = iota // data: landmark.ImageRef
	EventZoomChanged                       // data: landmark.ImageRef
	EventLandmarksChanged                  // data: nil
	EventPairCompleted                     // data: landmark.Pick
	EventPickingArmed                      // data: bool
	EventBusyChanged                       // data: bool
	EventExported                          // data: ExportResult
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ExportResult describes a finished export.
type ExportResult struct {
	TextPath string
	MaskDir  string
	Report   export.Report
	Err      error
}

// State holds the application state. All methods are safe for concurrent
// use; listeners are called without the lock held.
type State struct {
	mu sync.RWMutex

	cfg     config.Config
	log     zerolog.Logger
	session *landmark.Session
	views   [2]*image.View
	writer  *export.Writer

	armed bool
	busy  bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewState creates the application state from cfg.
func NewState(cfg config.Config, log zerolog.Logger) (*State, error) {
	session, err := landmark.NewSession(cfg.Landmarks.Capacity)
	if err != nil {
		return nil, err
	}

	s := &State{
		cfg:       cfg,
		log:       log,
		session:   session,
		writer:    export.NewWriter(export.LocalStore{}, cfg.ExportOptions(), log),
		listeners: make(map[EventType][]EventListener),
	}
	for _, ref := range []landmark.ImageRef{landmark.Fixed, landmark.Moving} {
		s.views[ref] = image.NewView(cfg.ZoomLimits(), cfg.Zoom.Step, cfg.ViewportSize())
	}
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the configuration the state was built with.
func (s *State) Config() config.Config {
	return s.cfg
}

// View returns the view for ref. The view must only be read from the
// goroutine that mutates State.
func (s *State) View(ref landmark.ImageRef) *image.View {
	return s.views[ref]
}

// Busy reports whether an export is running.
func (s *State) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Armed reports whether clicks are routed to the session.
func (s *State) Armed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.armed
}

// Awaiting returns the image the next pick must be made on.
func (s *State) Awaiting() landmark.ImageRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Awaiting()
}

// SessionState returns the current picking state.
func (s *State) SessionState() landmark.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.State()
}

// Table returns a snapshot of the landmark table.
func (s *State) Table() *landmark.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Table().Clone()
}

// LandmarkText renders the table exactly as it is written to file.
func (s *State) LandmarkText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Table().Format(s.cfg.Landmarks.Sentinel)
}

// LoadImage opens path into the view for ref. With zoom.fitOnLoad the view
// is then fitted to its viewport. A failed load leaves the view unchanged.
func (s *State) LoadImage(ref landmark.ImageRef, path string) error {
	img, err := image.Decode(path)
	if err != nil {
		s.log.Error().Err(err).Str("image", ref.String()).Str("path", path).Msg("image load failed")
		return err
	}
	return s.SetImage(ref, img, path)
}

// SetImage installs an already decoded image into the view for ref.
func (s *State) SetImage(ref landmark.ImageRef, img goimage.Image, path string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	v := s.views[ref]
	v.SetImage(img, path)
	if s.cfg.Zoom.FitOnLoad {
		if err := v.Fit(); err != nil {
			s.log.Warn().Err(err).Str("image", ref.String()).Msg("fit after load failed")
		}
	}
	s.log.Info().
		Str("image", ref.String()).
		Str("path", path).
		Stringer("size", v.Size()).
		Float64("scale", v.Scale()).
		Msg("image loaded")
	s.mu.Unlock()

	s.Emit(EventImageLoaded, ref)
	s.Emit(EventZoomChanged, ref)
	return nil
}

// ZoomIn steps the view for ref up by one zoom step.
func (s *State) ZoomIn(ref landmark.ImageRef) error {
	return s.zoom(ref, "in", (*image.View).ZoomIn)
}

// ZoomOut steps the view for ref down by one zoom step.
func (s *State) ZoomOut(ref landmark.ImageRef) error {
	return s.zoom(ref, "out", (*image.View).ZoomOut)
}

// Fit refits the view for ref to its viewport.
func (s *State) Fit(ref landmark.ImageRef) error {
	return s.zoom(ref, "fit", (*image.View).Fit)
}

// SetScale sets an explicit scale on the view for ref.
func (s *State) SetScale(ref landmark.ImageRef, scale float64) error {
	return s.zoom(ref, "set", func(v *image.View) error { return v.SetScale(scale) })
}

func (s *State) zoom(ref landmark.ImageRef, op string, fn func(*image.View) error) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	v := s.views[ref]
	err := fn(v)
	scale := v.Scale()
	s.mu.Unlock()

	if err != nil {
		s.log.Debug().Err(err).Str("image", ref.String()).Str("op", op).Float64("scale", scale).Msg("zoom rejected")
	} else {
		s.log.Debug().Str("image", ref.String()).Str("op", op).Float64("scale", scale).Msg("zoomed")
	}
	// Blocking flags may change even on rejection.
	s.Emit(EventZoomChanged, ref)
	return err
}

// SetViewport records the on-screen size available to the view for ref.
func (s *State) SetViewport(ref landmark.ImageRef, size geometry.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[ref].SetViewport(size)
}

// ArmPicking starts routing clicks on either image to the session.
func (s *State) ArmPicking() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	for _, v := range s.views {
		if !v.Loaded() {
			s.mu.Unlock()
			return fmt.Errorf("%w: open both images before picking landmarks", ErrNoImage)
		}
	}
	if s.session.State() == landmark.Full {
		s.mu.Unlock()
		return landmark.ErrCapacityExceeded
	}
	changed := !s.armed
	s.armed = true
	s.mu.Unlock()

	if changed {
		s.log.Info().Stringer("awaiting", s.Awaiting()).Msg("landmark picking armed")
		s.Emit(EventPickingArmed, true)
	}
	return nil
}

// Click handles a click at the view-space point p on image ref. The point
// is converted with the view's current scale and recorded in the session.
// Completing a pair disarms picking.
func (s *State) Click(ref landmark.ImageRef, p geometry.Point) (landmark.Pick, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return landmark.Pick{}, ErrBusy
	}
	if !s.armed {
		s.mu.Unlock()
		return landmark.Pick{}, ErrNotArmed
	}

	v := s.views[ref]
	scale := v.Scale()
	imgPt := v.ViewToImage(p)
	pick, err := s.session.RecordClick(ref, imgPt)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("image", ref.String()).Stringer("point", imgPt).Msg("click rejected")
		return pick, err
	}
	if !imgPt.In(v.Size()) {
		s.log.Warn().Str("image", ref.String()).Stringer("point", imgPt).Stringer("size", v.Size()).Msg("landmark outside image bounds")
	}
	disarmed := false
	if pick.PairCompleted {
		s.armed = false
		disarmed = true
	}
	s.mu.Unlock()

	s.log.Info().
		Str("image", ref.String()).
		Int("row", pick.Row).
		Stringer("view", p).
		Stringer("point", imgPt).
		Float64("scale", scale).
		Msg("landmark recorded")

	s.Emit(EventLandmarksChanged, nil)
	if pick.PairCompleted {
		s.Emit(EventPairCompleted, pick)
	}
	if disarmed {
		s.Emit(EventPickingArmed, false)
	}
	return pick, nil
}

// Reset clears every landmark and disarms picking.
func (s *State) Reset() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.session.Reset()
	wasArmed := s.armed
	s.armed = false
	s.mu.Unlock()

	s.log.Info().Msg("landmarks reset")
	s.Emit(EventLandmarksChanged, nil)
	if wasArmed {
		s.Emit(EventPickingArmed, false)
	}
	return nil
}

// Markers returns display markers for the stored points of ref.
func (s *State) Markers(ref landmark.ImageRef) []image.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := image.FixedMarkerColor
	if ref == landmark.Moving {
		col = image.MovingMarkerColor
	}
	var markers []image.Marker
	for i, r := range s.session.Table().Rows() {
		if p, ok := r.Point(ref); ok {
			markers = append(markers, image.Marker{At: p, Label: i + 1, Color: col})
		}
	}
	return markers
}

// MaskPreview composites the original image for ref with the mask of the
// landmark in row, so only the marked pixel stays opaque.
func (s *State) MaskPreview(ref landmark.ImageRef, row int) (goimage.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.views[ref]
	if !v.Loaded() {
		return nil, ErrNoImage
	}
	if row < 0 || row >= s.session.Capacity() {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, s.session.Capacity())
	}
	p, ok := s.session.Table().Row(row).Point(ref)
	if !ok {
		return nil, fmt.Errorf("no %s landmark in row %d", ref, row+1)
	}
	m, err := mask.Single(v.Size(), p)
	if err != nil {
		return nil, err
	}
	return mask.CompositeAlpha(v.Original(), m)
}

// Export writes the text grid to textPath and the masks into maskDir. Either
// may be empty to skip that part. It blocks; ExportAsync runs it in the
// background.
func (s *State) Export(textPath, maskDir string) ExportResult {
	table, fixed, moving, err := s.beginExport()
	if err != nil {
		return ExportResult{TextPath: textPath, MaskDir: maskDir, Err: err}
	}
	return s.finishExport(s.runExport(table, fixed, moving, textPath, maskDir))
}

// ExportAsync marks the state busy, then exports in a new goroutine and
// calls done with the result. ErrBusy is returned immediately if an export
// is already running.
func (s *State) ExportAsync(textPath, maskDir string, done func(ExportResult)) error {
	table, fixed, moving, err := s.beginExport()
	if err != nil {
		return err
	}
	go func() {
		res := s.finishExport(s.runExport(table, fixed, moving, textPath, maskDir))
		if done != nil {
			done(res)
		}
	}()
	return nil
}

func (s *State) beginExport() (*landmark.Table, geometry.Size, geometry.Size, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, geometry.Size{}, geometry.Size{}, ErrBusy
	}
	s.busy = true
	table := s.session.Table().Clone()
	fixed := s.views[landmark.Fixed].Size()
	moving := s.views[landmark.Moving].Size()
	s.mu.Unlock()

	s.Emit(EventBusyChanged, true)
	return table, fixed, moving, nil
}

func (s *State) runExport(table *landmark.Table, fixed, moving geometry.Size, textPath, maskDir string) ExportResult {
	res := ExportResult{TextPath: textPath, MaskDir: maskDir}
	var errs []error
	if textPath != "" {
		if err := s.writer.WriteLandmarksText(table, textPath); err != nil {
			errs = append(errs, err)
		}
	}
	if maskDir != "" {
		report, err := s.writer.WriteMasks(table, fixed, moving, maskDir)
		res.Report = report
		if err != nil {
			errs = append(errs, err)
		} else if !report.OK() {
			errs = append(errs, report.Err())
		}
	}
	res.Err = errors.Join(errs...)
	return res
}

func (s *State) finishExport(res ExportResult) ExportResult {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.Emit(EventBusyChanged, false)
	s.Emit(EventExported, res)
	return res
}
