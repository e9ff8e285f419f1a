package config

const (
	defaultConfigPath            = "~/.config/formcoach/config.toml"
	defaultDataDir               = "~/.local/share/formcoach"
	defaultLogDir                = "~/.local/share/formcoach/logs"
	defaultMinKeypointConfidence = 0.3
	defaultMinVisibleKeypoints   = 5
	defaultRefreshHz             = 30
	defaultLevelTolerance        = 30
	defaultWristBand             = 60
	defaultSourceWidth           = 640
	defaultSourceHeight          = 480
	defaultSubprocessTimeout     = 20
	defaultHTTPTimeout           = 10
	defaultSyntheticPeriod       = 60
	defaultTrialLimit            = 3
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Classification modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Frame source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceDirectory = "directory"
)

// Backend identifiers accepted by backends.preferred.
const (
	BackendSubprocess = "subprocess"
	BackendHTTP       = "http"
	BackendSynthetic  = "synthetic"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Engine: Engine{
			ClassificationMode:    ModeAuto,
			MinKeypointConfidence: defaultMinKeypointConfidence,
			MinVisibleKeypoints:   defaultMinVisibleKeypoints,
			RefreshHz:             defaultRefreshHz,
			LevelTolerance:        defaultLevelTolerance,
			WristBand:             defaultWristBand,
		},
		Source: Source{
			Kind:   SourceSynthetic,
			Loop:   true,
			Width:  defaultSourceWidth,
			Height: defaultSourceHeight,
		},
		Backends: Backends{
			Preferred: BackendSynthetic,
			Subprocess: Subprocess{
				StartupTimeout: defaultSubprocessTimeout,
			},
			HTTP: HTTPBackend{
				TimeoutSeconds: defaultHTTPTimeout,
			},
			Synthetic: Synthetic{
				PeriodFrames: defaultSyntheticPeriod,
			},
		},
		Access: Access{
			TrialLimit: defaultTrialLimit,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			SessionSummary: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
