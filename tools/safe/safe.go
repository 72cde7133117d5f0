package safe

import (
	"EduChat/logger"
)

// SafeGo starts a goroutine that recovers from panic, so a bad frame or a
// racing close never takes the whole gateway down.
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
