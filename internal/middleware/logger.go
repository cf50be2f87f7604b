package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	appLogger *log.Logger
)

// InitLogger initializes the file-based logging system
// Logs are saved in the logs folder as a single app.log file
func InitLogger(logDir string) error {
	// Get absolute path for log directory
	absLogDir, err := filepath.Abs(logDir)
	if err != nil {
		absLogDir = logDir
	}

	// Create logs directory if not exists
	if err := os.MkdirAll(absLogDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", absLogDir, err)
	}

	appLogFile := &lumberjack.Logger{
		Filename:   filepath.Join(absLogDir, "tradehub.log"),
		MaxSize:    10, // MB
		MaxBackups: 30,
		MaxAge:     30, // days
		Compress:   true,
		LocalTime:  true,
	}

	out := io.MultiWriter(os.Stdout, appLogFile)
	appLogger = log.New(out, "", log.LstdFlags)

	// Services log through the standard logger
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)

	appLogger.Printf("[INFO] Logger initialized, log file: %s", appLogFile.Filename)
	return nil
}

// LogInfo logs info level messages
func LogInfo(format string, v ...interface{}) {
	if appLogger != nil {
		appLogger.Printf("[INFO] "+format, v...)
	} else {
		log.Printf("[INFO] "+format, v...)
	}
}

// LogError logs error level messages
func LogError(format string, v ...interface{}) {
	if appLogger != nil {
		appLogger.Printf("[ERROR] "+format, v...)
	} else {
		log.Printf("[ERROR] "+format, v...)
	}
}

// LogDebug logs debug level messages
func LogDebug(format string, v ...interface{}) {
	if appLogger != nil {
		appLogger.Printf("[DEBUG] "+format, v...)
	} else {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// RequestLoggerMiddleware logs every request as METHOD URL | status | latency.
// The token query parameter used by websocket upgrades is masked.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		fullURL := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			query := c.Request.URL.Query()
			if query.Has("token") {
				query.Set("token", "***")
			}
			fullURL = fullURL + "?" + query.Encode()
		}

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		if statusCode >= 400 {
			LogError("%s %s | status=%d | latency=%v",
				c.Request.Method, fullURL, statusCode, latency)
		} else {
			LogInfo("%s %s | status=%d | latency=%v",
				c.Request.Method, fullURL, statusCode, latency)
		}
	}
}

// maxAuditBody is how much of a request body the audit log keeps
const maxAuditBody = 1000

// sensitiveFields are JSON body fields never written to the audit log
var sensitiveFields = map[string]bool{
	"password":        true,
	"confirmPassword": true,
	"token":           true,
}

// AuditLoggerMiddleware logs the body of state-changing requests such as
// registrations and trade posts, with credentials masked. Only JSON bodies
// are looked at, and no more than maxAuditBody+1 bytes of them are read
// ahead of the handler.
func AuditLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		startTime := time.Now()
		body := peekAuditBody(c)

		c.Next()

		userID := GetUserID(c)
		if userID == "" {
			userID = "-"
		}
		LogInfo("AUDIT %s %s | user=%s | status=%d | latency=%v | body=%s",
			c.Request.Method, c.Request.URL.Path, userID, c.Writer.Status(),
			time.Since(startTime), body)
	}
}

// peekAuditBody returns the loggable form of the request body and leaves
// the full body readable for the handler
func peekAuditBody(c *gin.Context) string {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return "(empty)"
	}
	if contentType := c.ContentType(); contentType != binding.MIMEJSON {
		if contentType == "" {
			contentType = "unknown type"
		}
		return "(" + contentType + ")"
	}

	prefix, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody+1))
	c.Request.Body = &prefixedBody{
		Reader: io.MultiReader(bytes.NewReader(prefix), c.Request.Body),
		Closer: c.Request.Body,
	}
	if err != nil {
		return fmt.Sprintf("(unreadable: %v)", err)
	}
	if len(prefix) > maxAuditBody {
		return fmt.Sprintf("(over %d bytes)", maxAuditBody)
	}
	return MaskBody(prefix)
}

type prefixedBody struct {
	io.Reader
	io.Closer
}

// MaskBody renders a JSON request body for logging with sensitive fields
// replaced. Bodies that are not JSON objects are summarized by size.
func MaskBody(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return "(empty)"
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Sprintf("(%d bytes)", len(body))
	}
	for k := range fields {
		if sensitiveFields[k] {
			fields[k] = json.RawMessage(`"***"`)
		}
	}

	masked, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("(%d bytes)", len(body))
	}

	out := string(masked)
	if len(out) > maxAuditBody {
		out = strings.ToValidUTF8(out[:maxAuditBody], "") + "..."
	}
	return out
}
