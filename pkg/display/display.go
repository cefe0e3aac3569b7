// Package display runs a Gamelang program in an Ebitengine window.
//
// Game drives the interpreter's frame loop from Ebitengine's Update, draws
// the background and sprites, and turns mouse and keyboard input into
// click and key events.
package display

import (
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/gamelang/pkg/vm"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// 画像のないスプライトの色
	placeholderColor = color.RGBA{0xFF, 0xA0, 0x00, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// Default window geometry.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// noticeDuration is how long a say message stays on screen.
const noticeDuration = 3 * time.Second

// maxConsoleLines is the number of print lines shown in the console overlay.
const maxConsoleLines = 5

// Option configures a Game.
type Option func(*Game)

// WithSize sets the logical screen size.
func WithSize(width, height int) Option {
	return func(g *Game) {
		g.width, g.height = width, height
	}
}

// WithTimeout stops the program after d. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Game) {
		g.timeout = d
	}
}

// WithMaxFrames stops the program after n frames. Zero means no limit.
func WithMaxFrames(n int) Option {
	return func(g *Game) {
		g.maxFrames = n
	}
}

// WithImages sets the loader for sprite and background images.
func WithImages(l *ImageLoader) Option {
	return func(g *Game) {
		g.images = l
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// WithHUD shows the frame counter overlay.
func WithHUD(show bool) Option {
	return func(g *Game) {
		g.showHUD = show
	}
}

// Game implements ebiten.Game. It is also the runtime's vm.Scheduler, so
// frame ticks run on display refresh, and its vm.Host, so print and say
// output is shown on screen.
type Game struct {
	runtime *vm.Runtime
	images  *ImageLoader

	width, height int
	timeout       time.Duration
	maxFrames     int
	showHUD       bool
	startTime     time.Time

	mu      sync.Mutex
	pending vm.TickFunc

	console  []string
	notice   string
	noticeAt time.Time

	log *slog.Logger
}

// NewGame creates a Game. Attach a runtime with SetRuntime before running.
func NewGame(opts ...Option) *Game {
	g := &Game{
		width:  DefaultWidth,
		height: DefaultHeight,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRuntime attaches the runtime whose world state is displayed.
func (g *Game) SetRuntime(r *vm.Runtime) {
	g.runtime = r
}

// ScheduleTick implements vm.Scheduler. The tick runs on the next Update.
func (g *Game) ScheduleTick(tick vm.TickFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = tick
}

// Log implements vm.Host.
func (g *Game) Log(line string) {
	g.log.Info(line)
	g.console = append(g.console, line)
	if len(g.console) > maxConsoleLines {
		g.console = g.console[len(g.console)-maxConsoleLines:]
	}
}

// Notify implements vm.Host. The message is shown as a banner.
func (g *Game) Notify(message string) {
	g.log.Info(message, "notify", true)
	g.notice = message
	g.noticeAt = time.Now()
}

// input is the input observed during one Update.
type input struct {
	clicked bool
	x, y    int
	keys    []string
	escape  bool
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	return g.step(time.Now(), readInput())
}

func readInput() input {
	var in input
	in.x, in.y = ebiten.CursorPosition()
	in.clicked = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	in.escape = inpututil.IsKeyJustPressed(ebiten.KeyEscape)
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if k == ebiten.KeyEscape {
			continue
		}
		in.keys = append(in.keys, keyName(k))
	}
	return in
}

// keyName is the name a key event carries: the lower-cased Ebitengine key
// name, such as "a", "space" or "arrowup".
func keyName(k ebiten.Key) string {
	return strings.ToLower(k.String())
}

// step advances the game by one update at now.
func (g *Game) step(now time.Time, in input) error {
	if g.runtime == nil {
		return fmt.Errorf("display: no runtime attached")
	}
	if g.startTime.IsZero() {
		g.startTime = now
	}
	if g.images != nil {
		// 前のフレームの描画が終わってから解放する
		g.images.ReleaseEvicted()
	}

	// タイムアウトチェック
	if g.timeout > 0 && now.Sub(g.startTime) >= g.timeout {
		g.log.Info("Timeout reached, terminating", "timeout", g.timeout)
		g.runtime.Stop()
		return ebiten.Termination
	}

	// Escキーで終了
	if in.escape {
		g.runtime.Stop()
		return ebiten.Termination
	}

	if in.clicked {
		g.runtime.Post(vm.EventClick, vm.Number(in.x), vm.Number(in.y))
	}
	for _, k := range in.keys {
		g.runtime.Post(vm.EventKey, vm.String(k))
	}

	g.mu.Lock()
	tick := g.pending
	g.pending = nil
	g.mu.Unlock()

	if tick != nil {
		tick(now)
	} else {
		// No frame loop: dispatch input directly.
		g.runtime.ProcessEvents()
	}

	if g.maxFrames > 0 && g.runtime.Context().FrameCount() >= g.maxFrames {
		g.log.Info("Frame limit reached, terminating", "frames", g.maxFrames)
		g.runtime.Stop()
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	if g.runtime == nil {
		return
	}
	ctx := g.runtime.Context()

	if bg := ctx.Background(); bg != "" {
		if tex := g.texture(bg); tex != nil {
			op := &ebiten.DrawImageOptions{}
			b := tex.Bounds()
			op.GeoM.Scale(float64(g.width)/float64(b.Dx()), float64(g.height)/float64(b.Dy()))
			screen.DrawImage(tex, op)
		}
	}

	for _, s := range ctx.Sprites() {
		if !s.Visible || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		tex := g.texture(s.Image)
		if tex == nil {
			vector.DrawFilledRect(screen, float32(s.X), float32(s.Y), float32(s.Width), float32(s.Height), placeholderColor, false)
			continue
		}
		op := &ebiten.DrawImageOptions{}
		b := tex.Bounds()
		op.GeoM.Scale(s.Width/float64(b.Dx()), s.Height/float64(b.Dy()))
		op.GeoM.Translate(s.X, s.Y)
		screen.DrawImage(tex, op)
	}

	g.drawOverlay(screen, ctx)
}

func (g *Game) drawOverlay(screen *ebiten.Image, ctx *vm.Context) {
	lineHeight := 16.0
	if g.showHUD {
		drawText(screen, fmt.Sprintf("frame %d  fps %d", ctx.FrameCount(), ctx.FPS()), 8, lineHeight)
	}

	y := float64(g.height) - lineHeight*float64(len(g.console))
	for _, line := range g.console {
		drawText(screen, line, 8, y)
		y += lineHeight
	}

	if g.notice != "" && time.Since(g.noticeAt) < noticeDuration {
		drawText(screen, g.notice, 8, lineHeight*2)
	}
}

func drawText(screen *ebiten.Image, s string, x, y float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, s, defaultFace, op)
}

// texture returns the GPU image for name. It returns nil when the image
// cannot be loaded.
func (g *Game) texture(name string) *ebiten.Image {
	if name == "" || g.images == nil {
		return nil
	}
	tex, err := g.images.Texture(name)
	if err != nil {
		return nil
	}
	return tex
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// Run opens a window and runs the game until the program stops, the window
// is closed or a limit is reached.
func Run(g *Game, title string, fps int) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if fps > 0 {
		ebiten.SetTPS(fps)
	}

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
