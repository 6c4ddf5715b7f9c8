package cmd

import _ "github.com/mj1618/dslr-remote/internal/platform/win32"
