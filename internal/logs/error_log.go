package logs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

type codeTextProvider interface {
	CodeText() string
}

type msgProvider interface {
	Msg() string
}

type dataProvider interface {
	Data() map[string]any
}

type stackProvider interface {
	Stack() []uintptr
}

// ErrorLog is the readable breakdown of an error chain.
type ErrorLog struct {
	Error      string
	Code       string
	Msg        string
	Data       map[string]any
	CauseChain []string
	Origin     string
	Stack      string
}

// BuildErrorLog extracts code, message, merged context data, the cause chain
// and the origin stack from err.
func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}
	out := ErrorLog{Error: err.Error()}

	var cp codeTextProvider
	if errors.As(err, &cp) {
		out.Code = cp.CodeText()
	}
	var mp msgProvider
	if errors.As(err, &mp) {
		out.Msg = mp.Msg()
	}
	out.Data = mergeData(err, 20)
	var sp stackProvider
	if errors.As(err, &sp) {
		out.Origin, out.Stack = formatStack(deepestStack(err), 32)
	}
	out.CauseChain = buildCauseChain(err, 20)
	return out
}

// ReportError logs err at error level with its breakdown attached.
func ReportError(action string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	meta := BuildErrorLog(err)
	base := []zap.Field{zap.String("action", action)}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin))
	}
	base = append(base, fields...)
	logger.Error(fmt.Sprintf("%s, error:%s", action, meta.Error), base...)
}

// mergeData collects Data() from every link; outer links win on key clashes.
func mergeData(err error, maxDepth int) map[string]any {
	var out map[string]any
	for i := 0; i < maxDepth && err != nil; i++ {
		if dp, ok := err.(dataProvider); ok {
			for k, v := range dp.Data() {
				if out == nil {
					out = make(map[string]any)
				}
				if _, seen := out[k]; !seen {
					out[k] = v
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}

func deepestStack(err error) []uintptr {
	var pcs []uintptr
	for i := 0; i < 32 && err != nil; i++ {
		if sp, ok := err.(stackProvider); ok && len(sp.Stack()) != 0 {
			pcs = sp.Stack()
		}
		err = errors.Unwrap(err)
	}
	return pcs
}

func buildCauseChain(err error, maxDepth int) []string {
	if err == nil || maxDepth <= 0 {
		return nil
	}
	out := make([]string, 0, 4)
	cur := errors.Unwrap(err)
	for i := 0; i < maxDepth && cur != nil; i++ {
		out = append(out, fmt.Sprintf("%T: %v", cur, cur))
		cur = errors.Unwrap(cur)
	}
	return out
}

func formatStack(pcs []uintptr, maxFrames int) (originCaller string, stack string) {
	if len(pcs) == 0 || maxFrames <= 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	for i := 0; i < maxFrames; i++ {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" && f.Line == 0 {
			break
		}
		if originCaller == "" {
			originCaller = fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
		}
		fmt.Fprintf(&b, "%s %s:%d", f.Function, f.File, f.Line)
		if !more {
			break
		}
		b.WriteString("\n")
	}
	return originCaller, b.String()
}
