package lang_test

import (
	"testing"

	"github.com/HendryAvila/recall/internal/lang"
)

func findSymbol(symbols []lang.Symbol, name string) *lang.Symbol {
	for i := range symbols {
		if symbols[i].Name == name {
			return &symbols[i]
		}
	}
	return nil
}

func TestForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app/models.py", "python"},
		{"src/index.ts", "typescript"},
		{"src/App.tsx", "typescript"},
		{"lib.rs", "rust"},
		{"util.c", "c"},
		{"util.hpp", "cpp"},
		{"README.md", ""},
		{"Makefile", ""},
		{"photo.PNG", ""},
	}
	for _, tc := range cases {
		l := lang.ForPath(tc.path)
		got := ""
		if l != nil {
			got = l.Name
		}
		if got != tc.want {
			t.Errorf("ForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseGo(t *testing.T) {
	src := `package main

import "fmt"

type Server struct {
	addr string
}

type Handler interface {
	Serve() error
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Start() error {
	fmt.Println(s.addr)
	return nil
}
`
	l := lang.ForPath("server.go")
	symbols := l.Parse(src)

	if s := findSymbol(symbols, "Server"); s == nil || s.Kind != lang.KindStruct {
		t.Errorf("Server = %+v, want struct", s)
	}
	if s := findSymbol(symbols, "Handler"); s == nil || s.Kind != lang.KindInterface {
		t.Errorf("Handler = %+v, want interface", s)
	}
	if s := findSymbol(symbols, "NewServer"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("NewServer = %+v, want function", s)
	}
	if s := findSymbol(symbols, "Start"); s == nil || s.Kind != lang.KindMethod {
		t.Errorf("Start = %+v, want method", s)
	}
}

func TestParsePython(t *testing.T) {
	src := `import os

class UserService:
    def __init__(self, db):
        self.db = db

    def find_user(self, user_id):
        return self.db.get(user_id)

def create_app():
    return App()
`
	l := lang.ForPath("service.py")
	symbols := l.Parse(src)

	if s := findSymbol(symbols, "UserService"); s == nil || s.Kind != lang.KindClass {
		t.Errorf("UserService = %+v, want class", s)
	}
	if s := findSymbol(symbols, "find_user"); s == nil || s.Kind != lang.KindMethod {
		t.Errorf("find_user = %+v, want method", s)
	}
	if s := findSymbol(symbols, "create_app"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("create_app = %+v, want function", s)
	}
}

func TestParseTypeScript(t *testing.T) {
	src := `export interface Config {
  port: number;
}

export type Result = string | null;

export class Client {
  connect() {}
}

export function parse(input: string): Config {
  return JSON.parse(input);
}

export const render = (c: Config) => c.port;
`
	l := lang.ForPath("client.ts")
	symbols := l.Parse(src)

	if s := findSymbol(symbols, "Config"); s == nil || s.Kind != lang.KindInterface {
		t.Errorf("Config = %+v, want interface", s)
	}
	if s := findSymbol(symbols, "Result"); s == nil || s.Kind != lang.KindType {
		t.Errorf("Result = %+v, want type", s)
	}
	if s := findSymbol(symbols, "Client"); s == nil || s.Kind != lang.KindClass {
		t.Errorf("Client = %+v, want class", s)
	}
	if s := findSymbol(symbols, "parse"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("parse = %+v, want function", s)
	}
	if s := findSymbol(symbols, "render"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("render = %+v, want function", s)
	}
}

func TestParseRust(t *testing.T) {
	src := `pub struct Engine {
    state: u32,
}

pub enum Mode {
    Fast,
    Slow,
}

impl Engine {
    pub fn new() -> Self {
        Engine { state: 0 }
    }
}

pub fn run(e: &Engine) -> u32 {
    e.state
}
`
	l := lang.ForPath("engine.rs")
	symbols := l.Parse(src)

	if s := findSymbol(symbols, "Engine"); s == nil || s.Kind != lang.KindStruct {
		t.Errorf("Engine = %+v, want struct", s)
	}
	if s := findSymbol(symbols, "Mode"); s == nil || s.Kind != lang.KindEnum {
		t.Errorf("Mode = %+v, want enum", s)
	}
	if s := findSymbol(symbols, "new"); s == nil || s.Kind != lang.KindMethod {
		t.Errorf("new = %+v, want method", s)
	}
	if s := findSymbol(symbols, "run"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("run = %+v, want function", s)
	}
}

func TestParseC(t *testing.T) {
	src := `#include <stdio.h>

struct point {
    int x;
    int y;
};

int add(int a, int b) {
    if (a > 0) {
        return a + b;
    }
    return b;
}
`
	l := lang.ForPath("math.c")
	symbols := l.Parse(src)

	if s := findSymbol(symbols, "point"); s == nil || s.Kind != lang.KindStruct {
		t.Errorf("point = %+v, want struct", s)
	}
	if s := findSymbol(symbols, "add"); s == nil || s.Kind != lang.KindFunction {
		t.Errorf("add = %+v, want function", s)
	}
	if findSymbol(symbols, "if") != nil {
		t.Error("control-flow keyword extracted as a symbol")
	}
}

func TestParse_GarbageYieldsNothing(t *testing.T) {
	garbage := "\x00\x01\x02 not code at all {{{{"
	for _, path := range []string{"a.go", "a.py", "a.ts", "a.rs", "a.c"} {
		l := lang.ForPath(path)
		if symbols := l.Parse(garbage); len(symbols) != 0 {
			t.Errorf("%s parser extracted symbols from garbage: %+v", l.Name, symbols)
		}
	}
}

func TestParse_LineSpans(t *testing.T) {
	src := `def first():
    pass

def second():
    pass
`
	symbols := lang.ForPath("x.py").Parse(src)
	if len(symbols) != 2 {
		t.Fatalf("got %d symbols, want 2", len(symbols))
	}
	if symbols[0].StartLine != 1 || symbols[0].EndLine != 3 {
		t.Errorf("first spans %d-%d, want 1-3", symbols[0].StartLine, symbols[0].EndLine)
	}
	if symbols[1].StartLine != 4 {
		t.Errorf("second starts at %d, want 4", symbols[1].StartLine)
	}
}
