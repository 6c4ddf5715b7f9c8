package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/httpapi"
	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/journal"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/mj1618/dslr-remote/internal/version"
	"gopkg.in/yaml.v3"
)

// mcpServer wraps the MCP server with the camera it drives and the probe
// cache.
type mcpServer struct {
	session *session
	camera  *camera.Camera
	journal *journal.Store
	cache   *probeCache
	mcp     *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	// HTTPAddr, when set, also serves the REST API there.
	HTTPAddr string
}

// newMCPServer connects the configured session, journal and camera and
// registers all tools.
func newMCPServer(cfg MCPConfig) (*mcpServer, error) {
	s, err := newSession(appConfig)
	if err != nil {
		return nil, err
	}
	store, err := openJournal(appConfig)
	if err != nil {
		return nil, err
	}
	cam, err := s.newCamera(store)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return newMCPTools(s, cam, store, cfg.CacheTTL), nil
}

// newMCPTools builds the server around existing collaborators. sess may be
// nil, in which case the window tools report that no app is available.
func newMCPTools(sess *session, cam *camera.Camera, store *journal.Store, ttl time.Duration) *mcpServer {
	s := &mcpServer{session: sess, camera: cam, journal: store}
	s.cache = newProbeCache(ttl, func() (automation.Probe, error) {
		if s.session == nil {
			return automation.Probe{}, errNoSession
		}
		return s.session.remote.Detect()
	})
	s.mcp = mcpserver.NewMCPServer("dslr-remote", version.Version)
	s.registerTools()
	return s
}

var errNoSession = errors.New("no remote app session")

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	if cfg.HTTPAddr != "" {
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(s.camera, logger)}
		go func() {
			logger.Info("serving http", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server", "error", err)
			}
		}()
		defer srv.Close()
	}

	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) close() error {
	err := s.camera.Close()
	if s.journal != nil {
		err = errors.Join(err, s.journal.Close())
	}
	return err
}

func (s *mcpServer) registerTools() {
	windowTypes := make([]string, len(model.WindowTypes))
	for i, wt := range model.WindowTypes {
		windowTypes[i] = string(wt)
	}

	// window automation
	s.mcp.AddTool(
		mcp.NewTool("state",
			mcp.WithDescription("Detect which screen the remote app is showing: no-window, no-camera, select-camera, main, cannot-create-folder or cannot-access-folder."),
		),
		s.handleState,
	)
	s.mcp.AddTool(
		mcp.NewTool("tree",
			mcp.WithDescription("List every control of each remote app window with its structural path and caption."),
		),
		s.handleTree,
	)
	s.mcp.AddTool(
		mcp.NewTool("press",
			mcp.WithDescription("Click a named control of a remote app screen. Requires connect."),
			mcp.WithString("window", mcp.Description("Screen the control belongs to"), mcp.Required(), mcp.Enum(windowTypes...)),
			mcp.WithString("control", mcp.Description("Control name from the catalog, e.g. isoIncreaseButton"), mcp.Required()),
		),
		s.handlePress,
	)
	s.mcp.AddTool(
		mcp.NewTool("text",
			mcp.WithDescription("Read the caption of a named control. Requires connect."),
			mcp.WithString("window", mcp.Description("Screen the control belongs to"), mcp.Required(), mcp.Enum(windowTypes...)),
			mcp.WithString("control", mcp.Description("Control name from the catalog, e.g. isoLabel"), mcp.Required()),
		),
		s.handleText,
	)

	// camera
	s.mcp.AddTool(
		mcp.NewTool("connect",
			mcp.WithDescription("Launch the remote app if needed, dismiss its dialogs and reach the main screen."),
		),
		s.handleConnect,
	)
	s.mcp.AddTool(
		mcp.NewTool("disconnect",
			mcp.WithDescription("Stop driving the remote app. Any exposure in flight is forgotten."),
		),
		s.handleDisconnect,
	)
	s.mcp.AddTool(
		mcp.NewTool("camera_status",
			mcp.WithDescription("Report exposure state, progress, image readiness and camera settings."),
		),
		s.handleCameraStatus,
	)
	s.mcp.AddTool(
		mcp.NewTool("configure",
			mcp.WithDescription("Change gain, bulb mode or image format. Only allowed while no exposure is running."),
			mcp.WithNumber("gain", mcp.Description("Index into the camera's ISO list")),
			mcp.WithBoolean("bulb", mcp.Description("Hold the shutter open in BULB mode")),
			mcp.WithString("format", mcp.Description("Image format"), mcp.Enum(string(model.FormatCFA), string(model.FormatDebayered), string(model.FormatJPEG))),
		),
		s.handleConfigure,
	)
	s.mcp.AddTool(
		mcp.NewTool("start_exposure",
			mcp.WithDescription("Start an exposure in the background. Poll camera_status until image_ready."),
			mcp.WithNumber("duration", mcp.Description("Exposure time in seconds"), mcp.Required()),
			mcp.WithBoolean("light", mcp.Description("Light frame (default true); false records a dark")),
		),
		s.handleStartExposure,
	)
	s.mcp.AddTool(
		mcp.NewTool("abort_exposure",
			mcp.WithDescription("End a bulb exposure early and discard the image."),
		),
		s.handleAbortExposure,
	)
	s.mcp.AddTool(
		mcp.NewTool("stop_exposure",
			mcp.WithDescription("End a bulb exposure early and keep the image."),
		),
		s.handleStopExposure,
	)
	s.mcp.AddTool(
		mcp.NewTool("set_roi",
			mcp.WithDescription("Set the readout region applied to the next image."),
			mcp.WithNumber("x", mcp.Description("Start column"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Start row"), mcp.Required()),
			mcp.WithNumber("width", mcp.Description("Columns"), mcp.Required()),
			mcp.WithNumber("height", mcp.Description("Rows"), mcp.Required()),
		),
		s.handleSetROI,
	)

	// image
	s.mcp.AddTool(
		mcp.NewTool("image_stats",
			mcp.WithDescription("Min, max, mean and median ADU of the last image."),
		),
		s.handleImageStats,
	)
	s.mcp.AddTool(
		mcp.NewTool("image_preview",
			mcp.WithDescription("A stretched PNG preview of the last image."),
			mcp.WithNumber("max", mcp.Description("Longest side in pixels (default 512)")),
		),
		s.handleImagePreview,
	)
	s.mcp.AddTool(
		mcp.NewTool("history",
			mcp.WithDescription("Recent exposures from the journal."),
			mcp.WithNumber("limit", mcp.Description("Number of exposures (default 20)")),
		),
		s.handleHistory,
	)
}

func toolResult(v any) (*mcp.CallToolResult, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *mcpServer) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	probe, err := s.cache.probe()
	if err != nil {
		return toolError(err)
	}
	return toolResult(output.StateResult{State: probe.State, Windows: probe.Windows})
}

func (s *mcpServer) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.session == nil {
		return toolError(errNoSession)
	}
	result, err := readTree(s.session.provider.Reader, s.session.catalog, s.session.cfg.App.Title)
	if err != nil {
		return toolError(err)
	}
	return toolResult(result)
}

func (s *mcpServer) windowControl(request mcp.CallToolRequest) (model.WindowType, string, error) {
	window, err := request.RequireString("window")
	if err != nil {
		return "", "", err
	}
	control, err := request.RequireString("control")
	if err != nil {
		return "", "", err
	}
	return parseWindowControl([]string{window, control})
}

func (s *mcpServer) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.session == nil {
		return toolError(errNoSession)
	}
	window, name, err := s.windowControl(request)
	if err != nil {
		return toolError(err)
	}
	defer s.cache.invalidate()
	if err := s.session.remote.PressButton(ctx, window, name); err != nil {
		return toolError(err)
	}
	return toolResult(output.ControlResult{Window: window, Control: name, OK: true})
}

func (s *mcpServer) handleText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.session == nil {
		return toolError(errNoSession)
	}
	window, name, err := s.windowControl(request)
	if err != nil {
		return toolError(err)
	}
	text, err := s.session.remote.ReadText(ctx, window, name)
	if err != nil {
		return toolError(err)
	}
	return toolResult(output.ControlResult{Window: window, Control: name, Text: &text, OK: true})
}

func (s *mcpServer) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer s.cache.invalidate()
	if err := s.camera.Connect(ctx); err != nil {
		return toolError(err)
	}
	return s.handleCameraStatus(ctx, request)
}

func (s *mcpServer) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.camera.Disconnect()
	return s.handleCameraStatus(ctx, request)
}

func (s *mcpServer) status() output.CameraStatus {
	settings := s.camera.Settings()
	gain, _ := settings.Gain()
	return output.CameraStatus{
		Connected:        s.camera.Connected(),
		Camera:           settings.Model.ID,
		State:            s.camera.State(),
		PercentCompleted: s.camera.PercentCompleted(),
		ImageReady:       s.camera.ImageReady(),
		Format:           settings.Format,
		Gain:             gain,
		Bulb:             settings.BulbMode,
		Width:            s.camera.CameraXSize(),
		Height:           s.camera.CameraYSize(),
		MaxADU:           s.camera.MaxADU(),
		SensorType:       s.camera.SensorType(),
	}
}

func (s *mcpServer) handleCameraStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.status())
}

func (s *mcpServer) handleConfigure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings := s.camera.Settings()
	args := request.GetArguments()
	if _, ok := args["gain"]; ok {
		settings = settings.WithGainIndex(request.GetInt("gain", settings.GainIndex))
	}
	if _, ok := args["bulb"]; ok {
		settings = settings.WithBulbMode(request.GetBool("bulb", settings.BulbMode))
	}
	if v := request.GetString("format", ""); v != "" {
		f, err := model.ParseImageFormat(v)
		if err != nil {
			return toolError(err)
		}
		settings = settings.WithFormat(f)
	}
	if _, err := settings.Gain(); err != nil {
		return toolError(err)
	}
	if err := s.camera.Configure(settings); err != nil {
		return toolError(err)
	}
	return toolResult(s.status())
}

func (s *mcpServer) handleStartExposure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	duration, err := request.RequireFloat("duration")
	if err != nil {
		return toolError(err)
	}
	light := request.GetBool("light", true)
	defer s.cache.invalidate()
	if err := s.camera.StartExposure(duration, light); err != nil {
		return toolError(err)
	}
	return toolResult(s.status())
}

func (s *mcpServer) handleAbortExposure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.camera.AbortExposure(ctx); err != nil {
		return toolError(err)
	}
	return toolResult(s.status())
}

func (s *mcpServer) handleStopExposure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.camera.StopExposure(ctx); err != nil {
		return toolError(err)
	}
	return toolResult(s.status())
}

func (s *mcpServer) handleSetROI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var vals [4]int
	for i, name := range []string{"x", "y", "width", "height"} {
		v, err := request.RequireFloat(name)
		if err != nil {
			return toolError(err)
		}
		vals[i] = int(v)
	}
	roi := imaging.ROI{StartX: vals[0], StartY: vals[1], NumX: vals[2], NumY: vals[3]}
	if err := s.camera.SetROI(roi); err != nil {
		return toolError(err)
	}
	return toolResult(roi)
}

func (s *mcpServer) handleImageStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.camera.ImageStatistics()
	if err != nil {
		return toolError(err)
	}
	return toolResult(st)
}

func (s *mcpServer) handleImagePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := s.camera.ImageArray()
	if err != nil {
		return toolError(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.Preview(img, request.GetInt("max", 512))); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("%dx%d preview", img.Width, img.Height)
	return mcp.NewToolResultImage(desc, base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
}

func (s *mcpServer) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return toolError(errors.New("no journal configured"))
	}
	entries, err := s.journal.Recent(ctx, request.GetInt("limit", 20))
	if err != nil {
		return toolError(err)
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return toolResult(output.HistoryResult{Exposures: entries})
}
