package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CALLEVAL_TEST_MODE") == "" {
			_ = os.Setenv("CALLEVAL_TEST_MODE", "1")
		}
	})
}
