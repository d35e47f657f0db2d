package config

const (
	defaultSourceRoot           = "~/Downloads"
	defaultDataDir              = "~/.local/share/tidy"
	defaultLogDir               = "~/.local/share/tidy/logs"
	defaultMode                 = ModeType
	defaultFallbackBucket       = "Other"
	defaultDateFormat           = "2006-01"
	defaultCollisionSuffixCap   = 1000
	defaultFlushIntervalSeconds = 5
	defaultQuietPeriodSeconds   = 10
	defaultSchedulerMinutes     = 60
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// DefaultRules returns the stock extension-to-bucket mapping applied when the
// configuration file declares no rules of its own.
func DefaultRules() []Rule {
	return []Rule{
		{Destination: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".heic"}},
		{Destination: "Videos", Extensions: []string{".mp4", ".mkv", ".mov", ".avi", ".wmv", ".flv", ".webm"}},
		{Destination: "Documents", Extensions: []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx", ".odt", ".txt", ".md"}},
		{Destination: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{Destination: "Code", Extensions: []string{".py", ".js", ".ts", ".java", ".c", ".cpp", ".cs", ".html", ".css", ".go", ".rs"}},
		{Destination: "Music", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".m4a", ".ogg"}},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceRoot: defaultSourceRoot,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Organize: Organize{
			Mode:               defaultMode,
			FallbackBucket:     defaultFallbackBucket,
			DateFormat:         defaultDateFormat,
			CollisionSuffixCap: defaultCollisionSuffixCap,
			Rules:              DefaultRules(),
		},
		Watch: Watch{
			FlushIntervalSeconds: defaultFlushIntervalSeconds,
			QuietPeriodSeconds:   defaultQuietPeriodSeconds,
		},
		Scheduler: Scheduler{
			IntervalMinutes: defaultSchedulerMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Runs:           true,
			Undo:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
