// Package goroutine launches background work with panic containment: a
// panicking sync pass or event drain is logged and dropped instead of
// taking the whole process down.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine, recovering any panic and logging it
// with the task name and stack.
func SafeGo(log logger.Interface, task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("background task panicked",
					"task", task,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
