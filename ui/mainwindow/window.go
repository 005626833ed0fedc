// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"landmark-picker/internal/app"
	"landmark-picker/internal/image"
	"landmark-picker/internal/landmark"
	"landmark-picker/internal/version"
	"landmark-picker/pkg/geometry"
	"landmark-picker/ui/canvas"
	"landmark-picker/ui/prefs"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

// imagePane is the canvas and zoom controls for one image.
type imagePane struct {
	ref     landmark.ImageRef
	canvas  *canvas.ImageCanvas
	title   *widget.Label
	zoomIn  *widget.Button
	zoomOut *widget.Button
	fit     *widget.Button
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	log   zerolog.Logger

	panes [2]*imagePane

	landmarkText *widget.Label
	statusBar    *widget.Label

	// Controls disabled while an export runs
	openFixed  *widget.Button
	openMoving *widget.Button
	pickBtn    *widget.Button
	resetBtn   *widget.Button
	writeBtn   *widget.Button
	exportBtn  *widget.Button
	previewBtn *widget.Button
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, log zerolog.Logger) *MainWindow {
	win := fyneApp.NewWindow(fmt.Sprintf("%s v%s", version.Name, version.Version))

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		log:    log,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreLastImages()
	mw.updateLandmarkText()
	mw.updateControls()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	for _, ref := range []landmark.ImageRef{landmark.Fixed, landmark.Moving} {
		mw.panes[ref] = mw.newImagePane(ref)
	}

	mw.openFixed = widget.NewButton("Open 1st Image", func() { mw.openImage(landmark.Fixed) })
	mw.openMoving = widget.NewButton("Open 2nd Image", func() { mw.openImage(landmark.Moving) })
	mw.pickBtn = widget.NewButton("Create Landmarks", mw.onCreateLandmarks)
	mw.resetBtn = widget.NewButton("Reset", mw.onReset)
	mw.writeBtn = widget.NewButton("Write to File", mw.onWriteFile)
	mw.exportBtn = widget.NewButton("Export Masks", mw.onExportMasks)
	mw.previewBtn = widget.NewButton("Preview Mask", mw.onPreviewMask)

	toolbar := container.NewHBox(
		mw.openFixed,
		mw.openMoving,
		widget.NewSeparator(),
		mw.pickBtn,
		mw.resetBtn,
		widget.NewSeparator(),
		mw.writeBtn,
		mw.exportBtn,
		mw.previewBtn,
	)

	images := container.NewGridWithColumns(2,
		mw.paneContainer(mw.panes[landmark.Fixed]),
		mw.paneContainer(mw.panes[landmark.Moving]),
	)

	mw.landmarkText = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
	textArea := container.NewVScroll(mw.landmarkText)
	textArea.SetMinSize(fyne.NewSize(0, 120))

	mw.statusBar = widget.NewLabel("Open both images, then press Create Landmarks")

	split := container.NewVSplit(images, textArea)
	split.SetOffset(0.8)

	content := container.NewBorder(
		toolbar,                           // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1100, 800))
}

func (mw *MainWindow) newImagePane(ref landmark.ImageRef) *imagePane {
	p := &imagePane{
		ref:    ref,
		canvas: canvas.NewImageCanvas(),
		title:  widget.NewLabel(paneTitle(ref, nil)),
	}
	p.zoomIn = widget.NewButton("+", func() { mw.onZoom(ref, mw.state.ZoomIn) })
	p.zoomOut = widget.NewButton("-", func() { mw.onZoom(ref, mw.state.ZoomOut) })
	p.fit = widget.NewButton("Fit", func() { mw.onZoom(ref, mw.state.Fit) })

	p.canvas.OnTap(func(pt geometry.Point) { mw.onPick(ref, pt) })
	p.canvas.OnViewportChange(func(size geometry.Size) { mw.state.SetViewport(ref, size) })
	return p
}

func (mw *MainWindow) paneContainer(p *imagePane) fyne.CanvasObject {
	controls := container.NewHBox(p.title, p.zoomOut, p.zoomIn, p.fit)
	return container.NewBorder(controls, nil, nil, nil, p.canvas)
}

func paneTitle(ref landmark.ImageRef, v *image.View) string {
	name := "1st image"
	if ref == landmark.Moving {
		name = "2nd image"
	}
	if v == nil || !v.Loaded() {
		return name
	}
	return fmt.Sprintf("%s: %s (%s, %.0f%%)", name, filepath.Base(v.Path), v.Size(), v.Scale()*100)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open 1st Image...", func() { mw.openImage(landmark.Fixed) }),
		fyne.NewMenuItem("Open 2nd Image...", func() { mw.openImage(landmark.Moving) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Write Landmarks...", mw.onWriteFile),
		fyne.NewMenuItem("Export Masks...", mw.onExportMasks),
	)

	landmarksMenu := fyne.NewMenu("Landmarks",
		fyne.NewMenuItem("Create Landmarks", mw.onCreateLandmarks),
		fyne.NewMenuItem("Reset", mw.onReset),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preview Mask...", mw.onPreviewMask),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, landmarksMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if ref, ok := data.(landmark.ImageRef); ok {
			mw.updateStatus("Loaded " + filepath.Base(mw.state.View(ref).Path))
		}
		mw.updateControls()
	})

	mw.state.On(app.EventZoomChanged, func(data interface{}) {
		if ref, ok := data.(landmark.ImageRef); ok {
			mw.renderPane(ref)
		}
		mw.updateControls()
	})

	mw.state.On(app.EventLandmarksChanged, func(data interface{}) {
		mw.updateLandmarkText()
		mw.renderPane(landmark.Fixed)
		mw.renderPane(landmark.Moving)
		mw.updateControls()
	})

	mw.state.On(app.EventPairCompleted, func(data interface{}) {
		if pick, ok := data.(landmark.Pick); ok {
			mw.updateStatus(fmt.Sprintf("Landmark %d stored. Press Create Landmarks for the next pair.", pick.Row+1))
		}
	})

	mw.state.On(app.EventPickingArmed, func(data interface{}) {
		if armed, ok := data.(bool); ok && armed {
			mw.updateStatus(fmt.Sprintf("Click a point on the %s image", awaitingName(mw.state.Awaiting())))
		}
		mw.updateControls()
	})

	mw.state.On(app.EventBusyChanged, func(data interface{}) {
		if busy, ok := data.(bool); ok && busy {
			mw.updateStatus("Writing files...")
		}
		mw.updateControls()
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		res, ok := data.(app.ExportResult)
		if !ok {
			return
		}
		if res.Err != nil {
			dialog.ShowError(res.Err, mw.Window)
			mw.updateStatus("Export finished with errors")
			return
		}
		if res.MaskDir != "" {
			mw.updateStatus(res.Report.Summary())
		} else {
			mw.updateStatus("Landmarks written to " + res.TextPath)
		}
	})
}

func awaitingName(ref landmark.ImageRef) string {
	if ref == landmark.Fixed {
		return "1st"
	}
	return "2nd"
}

// renderPane redraws one image with its landmark markers.
func (mw *MainWindow) renderPane(ref landmark.ImageRef) {
	p := mw.panes[ref]
	v := mw.state.View(ref)
	p.title.SetText(paneTitle(ref, v))
	if !v.Loaded() {
		p.canvas.SetImage(nil)
		return
	}

	comp := image.NewComposite(v.Display(), v.Scale())
	comp.Markers = mw.state.Markers(ref)
	p.canvas.SetImage(comp.Render())
}

// updateControls enables controls to match the current state.
func (mw *MainWindow) updateControls() {
	busy := mw.state.Busy()
	for _, p := range mw.panes {
		v := mw.state.View(p.ref)
		setEnabled(p.zoomIn, !busy && v.Loaded() && !v.ZoomInBlocked())
		setEnabled(p.zoomOut, !busy && v.Loaded() && !v.ZoomOutBlocked())
		setEnabled(p.fit, !busy && v.Loaded())
	}

	bothLoaded := mw.state.View(landmark.Fixed).Loaded() && mw.state.View(landmark.Moving).Loaded()
	setEnabled(mw.openFixed, !busy)
	setEnabled(mw.openMoving, !busy)
	setEnabled(mw.pickBtn, !busy && bothLoaded && !mw.state.Armed() && mw.state.SessionState() != landmark.Full)
	setEnabled(mw.resetBtn, !busy)
	setEnabled(mw.writeBtn, !busy)
	setEnabled(mw.exportBtn, !busy)
	setEnabled(mw.previewBtn, !busy)
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

func (mw *MainWindow) updateLandmarkText() {
	mw.landmarkText.SetText(mw.state.LandmarkText())
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir(key string) fyne.ListableURI {
	path := mw.prefs.String(key)
	if path == "" {
		path = mw.prefs.String(prefs.KeyLastDir)
	}
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
	mw.savePrefs()
}

func (mw *MainWindow) savePrefs() {
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warn().Err(err).Str("path", mw.prefs.Path()).Msg("saving preferences failed")
	}
}

func imagePrefKey(ref landmark.ImageRef) string {
	if ref == landmark.Fixed {
		return prefs.KeyLastFixedImage
	}
	return prefs.KeyLastMovingImage
}

func scalePrefKey(ref landmark.ImageRef) string {
	if ref == landmark.Fixed {
		return prefs.KeyFixedScale
	}
	return prefs.KeyMovingScale
}

// saveExportDir remembers dir as the place written files went.
func (mw *MainWindow) saveExportDir(dir string) {
	mw.prefs.SetString(prefs.KeyLastExportDir, dir)
	mw.savePrefs()
}

// saveScale remembers the zoom of ref for the next start.
func (mw *MainWindow) saveScale(ref landmark.ImageRef) {
	mw.prefs.SetFloat(scalePrefKey(ref), mw.state.View(ref).Scale())
	mw.savePrefs()
}

// restoreLastImages loads the previously used images. Without fit on load
// each image comes back at its last zoom.
func (mw *MainWindow) restoreLastImages() {
	fitOnLoad := mw.state.Config().Zoom.FitOnLoad
	for _, ref := range []landmark.ImageRef{landmark.Fixed, landmark.Moving} {
		path := mw.prefs.String(imagePrefKey(ref))
		if path == "" {
			continue
		}
		if !image.IsSupportedFormat(path) {
			mw.log.Debug().Str("image", ref.String()).Str("path", path).Msg("skipping stored image with unsupported format")
			continue
		}
		if err := mw.state.LoadImage(ref, path); err != nil {
			mw.log.Warn().Err(err).Str("image", ref.String()).Msg("could not restore last image")
			continue
		}
		if fitOnLoad {
			continue
		}
		scale := mw.prefs.FloatWithFallback(scalePrefKey(ref), 1.0)
		if scale == 1.0 {
			continue
		}
		if err := mw.state.SetScale(ref, scale); err != nil {
			mw.log.Warn().Err(err).Str("image", ref.String()).Float64("scale", scale).Msg("could not restore last zoom")
		}
	}
}

// Action handlers

func (mw *MainWindow) openImage(ref landmark.ImageRef) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		if err := mw.state.LoadImage(ref, path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(imagePrefKey(ref), path)
		mw.savePrefs()
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(prefs.KeyLastDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onZoom(ref landmark.ImageRef, zoom func(landmark.ImageRef) error) {
	err := zoom(ref)
	switch {
	case err == nil:
		mw.saveScale(ref)
	case errors.Is(err, geometry.ErrScaleRejected):
		mw.updateStatus("Zoom limit reached")
	default:
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onCreateLandmarks() {
	if err := mw.state.ArmPicking(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onPick(ref landmark.ImageRef, p geometry.Point) {
	_, err := mw.state.Click(ref, p)
	if err == nil {
		if mw.state.Armed() {
			mw.updateStatus(fmt.Sprintf("Click the matching point on the %s image", awaitingName(mw.state.Awaiting())))
		}
		return
	}

	var orderErr *landmark.OrderError
	switch {
	case errors.As(err, &orderErr):
		dialog.ShowInformation("Selection Error", orderErr.Message(), mw.Window)
	case errors.Is(err, app.ErrNotArmed):
		mw.updateStatus("Press Create Landmarks before picking points")
	case errors.Is(err, landmark.ErrCapacityExceeded):
		dialog.ShowInformation("Landmarks full", "Every landmark has been set. Reset to start again.", mw.Window)
	default:
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onReset() {
	if err := mw.state.Reset(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Landmarks cleared")
}

func (mw *MainWindow) onWriteFile() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		mw.saveExportDir(filepath.Dir(path))
		mw.runExport(path, "")
	}, mw.Window)
	fd.SetFileName(mw.state.Config().Export.TextName)
	if loc := mw.getLastDir(prefs.KeyLastExportDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportMasks() {
	fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		mw.saveExportDir(dir.Path())
		textPath := filepath.Join(dir.Path(), mw.state.Config().Export.TextName)
		mw.runExport(textPath, dir.Path())
	}, mw.Window)
	if loc := mw.getLastDir(prefs.KeyLastExportDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// runExport writes in the background; results arrive via EventExported.
func (mw *MainWindow) runExport(textPath, maskDir string) {
	if err := mw.state.ExportAsync(textPath, maskDir, nil); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onPreviewMask() {
	capacity := mw.state.Config().Landmarks.Capacity
	rows := make([]string, capacity)
	for i := range rows {
		rows[i] = strconv.Itoa(i + 1)
	}

	rowSelect := widget.NewSelect(rows, nil)
	rowSelect.SetSelectedIndex(0)
	imageSelect := widget.NewSelect([]string{"1st image", "2nd image"}, nil)
	imageSelect.SetSelectedIndex(0)

	form := []*widget.FormItem{
		widget.NewFormItem("Landmark", rowSelect),
		widget.NewFormItem("Image", imageSelect),
	}
	dialog.ShowForm("Preview Mask", "Show", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		ref := landmark.Fixed
		if imageSelect.SelectedIndex() == 1 {
			ref = landmark.Moving
		}
		mw.showMaskPreview(ref, rowSelect.SelectedIndex())
	}, mw.Window)
}

func (mw *MainWindow) showMaskPreview(ref landmark.ImageRef, row int) {
	preview, err := mw.state.MaskPreview(ref, row)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	rendered := image.NewComposite(preview, 1.0).Render()
	img := fynecanvas.NewImageFromImage(rendered)
	img.FillMode = fynecanvas.ImageFillOriginal
	img.ScaleMode = fynecanvas.ImageScalePixels

	scroll := container.NewScroll(img)
	scroll.SetMinSize(fyne.NewSize(600, 450))
	title := fmt.Sprintf("Mask %d on %s image", row+1, awaitingName(ref))
	dialog.ShowCustom(title, "Close", scroll, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+version.Name,
		fmt.Sprintf("%s v%s\n\n"+
			"Pick corresponding landmarks on two images and export them\n"+
			"as a text grid and single-pixel mask images.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Name, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
