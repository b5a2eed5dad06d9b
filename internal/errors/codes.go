package errors

// Common error codes
const (
	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrWatchConfig     ErrorCode = "watch_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrAlreadyRunning ErrorCode = "already_running"
	ErrNotRunning     ErrorCode = "not_running"
	ErrPIDFileRead    ErrorCode = "pid_file_read_failed"
	ErrPIDFileWrite   ErrorCode = "pid_file_write_failed"
	ErrPIDFileInvalid ErrorCode = "pid_file_invalid"
	ErrSpawnFailed    ErrorCode = "spawn_failed"
	ErrSignalFailed   ErrorCode = "signal_failed"

	// Sampling errors
	ErrPersistence ErrorCode = "persistence_failed"
	ErrLogDirRead  ErrorCode = "log_dir_read_failed"

	// D-Bus errors
	ErrBusConnect   ErrorCode = "bus_connect_failed"
	ErrBusNameTaken ErrorCode = "bus_name_taken"
)

var errorMessages = map[ErrorCode]string{
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read configuration",
	ErrInvalidInterval: "Invalid interval value",
	ErrWatchConfig:     "Failed to watch configuration",
	ErrInvalidLogLevel: "Invalid log level",
	ErrAlreadyRunning:  "Sampler is already running",
	ErrNotRunning:      "Sampler is not running",
	ErrPIDFileRead:     "Failed to read PID file",
	ErrPIDFileWrite:    "Failed to write PID file",
	ErrPIDFileInvalid:  "PID file does not contain a process ID",
	ErrSpawnFailed:     "Failed to start sampler process",
	ErrSignalFailed:    "Failed to signal sampler process",
	ErrPersistence:     "Failed to append observation",
	ErrLogDirRead:      "Failed to read log directory",
	ErrBusConnect:      "Failed to connect to session bus",
	ErrBusNameTaken:    "D-Bus name already owned",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
