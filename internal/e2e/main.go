// Command e2e checks that patterns compile and match when built for WebAssembly, where
// the re2 engine itself runs inside a nested wazero runtime.
package main

import (
	"fmt"

	"github.com/wasilibs/go-rx"
)

func main() {
	lua := rx.MustCompile("(%a+) world", rx.Lua)
	if got := lua.Match("hello world").MustGroup(1); got != "hello" {
		panic(fmt.Sprintf("lua: got %q", got))
	}

	for _, engine := range rx.Engines() {
		p := rx.MustCompile("h(e|a)llo", rx.POSIX, rx.WithEngine(engine))
		out, err := p.Gsub("hello hallo", rx.Template("<%1>"))
		if err != nil {
			panic(err)
		}
		if out != "<e> <a>" {
			panic(fmt.Sprintf("%s: got %q", engine, out))
		}
	}
}
