package script

import (
	"errors"
	"strings"
	"testing"
)

const greetScript = `
name = "greet"
description = "Greet someone by name."
params = {
    "type": "object",
    "properties": {"who": {"type": "string"}},
    "required": ["who"],
}

def run(args):
    return "hello " + args["who"]
`

func TestParseSource_FullDeclaration(t *testing.T) {
	t.Parallel()

	def, err := parseSource("greet.star", []byte(greetScript))
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}

	if def.Name != "greet" {
		t.Errorf("Name = %q, want %q", def.Name, "greet")
	}
	if def.Description != "Greet someone by name." {
		t.Errorf("Description = %q", def.Description)
	}
	if !strings.Contains(string(def.Schema), `"required"`) {
		t.Errorf("Schema = %s, want declared params", def.Schema)
	}
	if def.Source != "greet.star" {
		t.Errorf("Source = %q", def.Source)
	}
}

func TestParseSource_DefaultSchema(t *testing.T) {
	t.Parallel()

	def, err := parseSource("t.star", []byte("name = \"t\"\ndef run(args):\n    return \"ok\"\n"))
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}
	if string(def.Schema) != `{"type":"object"}` {
		t.Errorf("Schema = %s, want permissive object schema", def.Schema)
	}
}

func TestParseSource_PolicyExtraction(t *testing.T) {
	t.Parallel()

	src := `
name = "t"
policy = {
    "allow_network": True,
    "allow_env": True,
    "allow_read": ["/data/**"],
    "allow_write": ["/out/*"],
}

def run(args):
    return "ok"
`
	def, err := parseSource("t.star", []byte(src))
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}

	p := def.Policy
	if !p.AllowNetwork || !p.AllowEnv {
		t.Errorf("Policy switches = %+v, want both true", p)
	}
	if len(p.AllowRead) != 1 || p.AllowRead[0] != "/data/**" {
		t.Errorf("AllowRead = %v", p.AllowRead)
	}
	if len(p.AllowWrite) != 1 || p.AllowWrite[0] != "/out/*" {
		t.Errorf("AllowWrite = %v", p.AllowWrite)
	}
}

func TestParseSource_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing name",
			src:  "def run(args):\n    return \"ok\"\n",
			want: "missing name",
		},
		{
			name: "empty name",
			src:  "name = \"\"\ndef run(args):\n    return \"ok\"\n",
			want: "name must not be empty",
		},
		{
			name: "missing run",
			src:  "name = \"t\"\n",
			want: "missing run function",
		},
		{
			name: "run is not a function",
			src:  "name = \"t\"\nrun = 42\n",
			want: "run must be a function",
		},
		{
			name: "run takes no arguments",
			src:  "name = \"t\"\ndef run():\n    return \"ok\"\n",
			want: "run must accept an arguments parameter",
		},
		{
			name: "unknown policy key",
			src:  "name = \"t\"\npolicy = {\"allow_everything\": True}\ndef run(args):\n    return \"ok\"\n",
			want: "unknown key",
		},
		{
			name: "policy is not a dict",
			src:  "name = \"t\"\npolicy = \"everything\"\ndef run(args):\n    return \"ok\"\n",
			want: "policy must be a dict",
		},
		{
			name: "malformed glob pattern",
			src:  "name = \"t\"\npolicy = {\"allow_read\": [\"/data/[bad\"]}\ndef run(args):\n    return \"ok\"\n",
			want: "invalid glob pattern",
		},
		{
			name: "syntax error",
			src:  "name = \n",
			want: "",
		},
		{
			name: "top-level fault",
			src:  "name = \"t\"\nboom = 1 // 0\ndef run(args):\n    return \"ok\"\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseSource("t.star", []byte(tt.src))
			if !errors.Is(err, ErrLoad) {
				t.Fatalf("parseSource = %v, want ErrLoad", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParseSource_OversizedSource(t *testing.T) {
	t.Parallel()

	src := append([]byte("name = \"t\"\n# "), make([]byte, maxSourceBytes)...)
	if _, err := parseSource("t.star", src); !errors.Is(err, ErrLoad) {
		t.Fatalf("parseSource = %v, want ErrLoad", err)
	}
}

func TestParseSource_TopLevelIOFails(t *testing.T) {
	t.Parallel()

	// I/O builtins are declared for resolution but inert at load time: a
	// top-level call must fail, carrying zero capability.
	src := "name = \"t\"\nleak = read_file(\"/etc/hostname\")\ndef run(args):\n    return \"ok\"\n"
	_, err := parseSource("t.star", []byte(src))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("parseSource = %v, want ErrLoad", err)
	}
	if !strings.Contains(err.Error(), "not available at module load time") {
		t.Errorf("error %q does not explain the load-time restriction", err)
	}
}

func TestParseSource_EmptyNameUsesErrEmptyName(t *testing.T) {
	t.Parallel()

	_, err := parseSource("t.star", []byte("name = \"\"\ndef run(args):\n    return \"ok\"\n"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("parseSource = %v, want ErrLoad", err)
	}
	if !strings.Contains(err.Error(), ErrEmptyName.Error()) {
		t.Errorf("error %q does not mention the empty-name cause", err)
	}
}
