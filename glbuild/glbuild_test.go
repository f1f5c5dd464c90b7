package glbuild_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glbuild/glsllib"
)

func TestOrderTemps(t *testing.T) {
	var tm glbuild.TempMap
	// A registered before its dependency.
	mustAdd(t, &tm, "A", "(B * 2.0)")
	mustAdd(t, &tm, "C", "1.0")
	mustAdd(t, &tm, "B", "C + C")
	order, err := glbuild.OrderTemps(&tm)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"C", "B", "A"}
	if !slices.Equal(order, want) {
		t.Errorf("want order %v, got %v", want, order)
	}

	// Independent temps keep insertion order.
	var indep glbuild.TempMap
	for _, name := range []string{"z", "y", "x"} {
		mustAdd(t, &indep, name, "0.5")
	}
	order, err = glbuild.OrderTemps(&indep)
	if err != nil {
		t.Fatal(err)
	} else if !slices.Equal(order, []string{"z", "y", "x"}) {
		t.Errorf("unstable order %v", order)
	}
}

func TestOrderTempsCycle(t *testing.T) {
	var tm glbuild.TempMap
	mustAdd(t, &tm, "free", "2.0")
	mustAdd(t, &tm, "A", "B + 1.0")
	mustAdd(t, &tm, "B", "A * 2.0")
	order, err := glbuild.OrderTemps(&tm)
	if !errors.Is(err, glbuild.ErrTempCycle) {
		t.Fatalf("want cycle error, got %v", err)
	}
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "B") {
		t.Errorf("cycle error does not name members: %v", err)
	}
	if !slices.Equal(order, []string{"free"}) {
		t.Errorf("want resolvable prefix [free], got %v", order)
	}

	var self glbuild.TempMap
	mustAdd(t, &self, "s", "s + 1.0")
	_, err = glbuild.OrderTemps(&self)
	if !errors.Is(err, glbuild.ErrTempCycle) {
		t.Errorf("self reference not detected: %v", err)
	}
}

func TestDependsOnBoundaries(t *testing.T) {
	set := make(glbuild.StrSet)
	set.Add("t1", "e")
	for _, test := range []struct {
		body string
		want bool
	}{
		{"t1", true},
		{"(t1*2.0)", true},
		{"t10 + 1.0", false},
		{"xt1", false},
		{"v.t1", false},
		{"1e5 + 2.5e-3", false},
		{"e * 2.0", true},
		{"foo(t1, 1.0)", true},
		{"", false},
	} {
		got := glbuild.TempInfo{Type: glbuild.Float, Body: test.body}.DependsOn(set)
		if got != test.want {
			t.Errorf("%q: want DependsOn=%v, got %v", test.body, test.want, got)
		}
	}
}

func TestTempMapRejectsDuplicates(t *testing.T) {
	var tm glbuild.TempMap
	mustAdd(t, &tm, "a", "1.0")
	err := tm.Add("a", glbuild.TempInfo{Type: glbuild.Float, Body: "2.0"})
	if !errors.Is(err, glbuild.ErrDuplicateTemp) {
		t.Errorf("want duplicate error, got %v", err)
	}
	ti, _ := tm.Get("a")
	if ti.Body != "1.0" {
		t.Errorf("temporary overwritten: %q", ti.Body)
	}
	for _, bad := range []string{"", "1a", "gl_Foo", "a b"} {
		if tm.Add(bad, glbuild.TempInfo{Type: glbuild.Float, Body: "1.0"}) == nil {
			t.Errorf("accepted invalid name %q", bad)
		}
	}
}

func TestAppendOrderedTempVals(t *testing.T) {
	var tm glbuild.TempMap
	tm.Add("b", glbuild.TempInfo{Type: glbuild.Float3, Body: "normalize(a)"})
	tm.Add("a", glbuild.TempInfo{Type: glbuild.Float3, Body: "vec3(1.0)"})
	tm.Add("i", glbuild.TempInfo{Type: glbuild.Int, Body: "2"})
	got, err := glbuild.AppendOrderedTempVals(nil, &tm, "mediump")
	if err != nil {
		t.Fatal(err)
	}
	const want = "\tmediump vec3 a = vec3(1.0);\n\tint i = 2;\n\tmediump vec3 b = normalize(a);\n"
	if string(got) != want {
		t.Errorf("want\n%s\ngot\n%s", want, got)
	}
	got, err = glbuild.AppendOrderedTempFuncs(nil, &tm)
	if err != nil {
		t.Fatal(err)
	} else if !strings.Contains(string(got), "vec3 a() { return vec3(1.0); }\n") {
		t.Errorf("bad function temporaries:\n%s", got)
	}
}

func TestLayout(t *testing.T) {
	l := glbuild.NewLayout(
		glbuild.Var{Name: "a", Type: glbuild.Float3, Kind: glbuild.Attribute},
		glbuild.Var{Name: "u", Type: glbuild.Mat4, Kind: glbuild.Uniform},
		glbuild.Var{Name: "a", Type: glbuild.Float, Kind: glbuild.Uniform}, // ignored
	)
	if l.Len() != 2 {
		t.Fatalf("want 2 vars, got %d", l.Len())
	}
	if _, ok := l.Lookup("a"); !ok || l.IsUsed("a") {
		t.Error("lookup must find a without marking it used")
	}
	l.Use("u")
	if used := l.Used(nil, glbuild.Uniform); len(used) != 1 || used[0].Name != "u" {
		t.Errorf("unexpected used uniforms %v", used)
	}
	if err := l.Add(glbuild.Var{Name: "u", Type: glbuild.Mat4, Kind: glbuild.Uniform}); err != nil {
		t.Error("same-type redeclaration must be accepted:", err)
	}
	if err := l.Add(glbuild.Var{Name: "u", Type: glbuild.Mat3, Kind: glbuild.Uniform}); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Error("want type mismatch, got", err)
	}
}

func TestGenerate(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	col := mustNode(t, &g, varNode{glbuild.Float4, "aColor"})
	vcol := mustNode(t, &g, varNode{glbuild.Float4, "vcolor"})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos, "vcolor": col, "vunused": col})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": vcol})
	m := &testMaterial{vars: map[glbuild.Stage][]glbuild.Var{
		glbuild.StageVertex: {
			{Name: "aPos", Type: glbuild.Float4, Kind: glbuild.Attribute},
			{Name: "aColor", Type: glbuild.Float4, Kind: glbuild.Attribute},
			{Name: "aNormal", Type: glbuild.Float3, Kind: glbuild.Attribute},
		},
	}}
	pair := mustGenerate(t, vs, ps, glbuild.DefaultConfig(), m)
	const wantVS = "#version 330 core\n\nin vec4 aPos;\nin vec4 aColor;\nout vec4 vcolor;\n\nvoid main() {\n\tgl_Position = aPos;\n\tvcolor = aColor;\n}\n"
	const wantPS = "#version 330 core\n\nin vec4 vcolor;\nout vec4 fragColor;\n\nvoid main() {\n\tfragColor = vcolor;\n}\n"
	if pair.Vertex != wantVS {
		t.Errorf("vertex: want\n%s\ngot\n%s", wantVS, pair.Vertex)
	}
	if pair.Pixel != wantPS {
		t.Errorf("pixel: want\n%s\ngot\n%s", wantPS, pair.Pixel)
	}
	if len(pair.Varyings) != 1 || pair.Varyings[0].Name != "vcolor" {
		t.Errorf("unused varying kept: %v", pair.Varyings)
	}
	if len(pair.VertexInputs) != 2 {
		t.Errorf("unused attribute declared: %v", pair.VertexInputs)
	}
	if len(pair.Outputs) != 1 || pair.Outputs[0].Kind != glbuild.Output {
		t.Errorf("unexpected outputs %v", pair.Outputs)
	}

	// Same graph, same material: identical sources.
	again := mustGenerate(t, vs, ps, glbuild.DefaultConfig(), m)
	if again.Hash() != pair.Hash() {
		t.Error("generation is not deterministic")
	}
}

func TestGenerateOmitsFailingChannel(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	missing := mustNode(t, &g, varNode{glbuild.Float4, "absent"})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": missing})
	pair := mustGenerate(t, vs, ps, glbuild.DefaultConfig(), posMaterial())
	if strings.Contains(pair.Pixel, "fragColor") {
		t.Errorf("failed channel emitted:\n%s", pair.Pixel)
	}
	if len(pair.Outputs) != 0 {
		t.Errorf("unexpected outputs %v", pair.Outputs)
	}
}

func TestSharedTempRegisteredOnce(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	body := mustNode(t, &g, varNode{glbuild.Float4, "tint"})
	tmp := mustNode(t, &g, tempNode{t: glbuild.Float4, name: "shared", body: body})
	sum := mustNode(t, &g, addNode{tmp, tmp})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": sum})
	m := posMaterial()
	m.vars[glbuild.StagePixel] = []glbuild.Var{{Name: "tint", Type: glbuild.Float4, Kind: glbuild.Uniform}}
	cfg := glbuild.DefaultConfig()
	cfg.Precision = "mediump"
	pair := mustGenerate(t, vs, ps, cfg, m)
	if !strings.Contains(pair.Pixel, "precision mediump float;\n") {
		t.Errorf("missing precision statement:\n%s", pair.Pixel)
	}
	if n := strings.Count(pair.Pixel, "mediump vec4 shared = tint;"); n != 1 {
		t.Errorf("want one temporary declaration, got %d:\n%s", n, pair.Pixel)
	}
	if !strings.Contains(pair.Pixel, "fragColor = (shared + shared);") {
		t.Errorf("temporary not referenced:\n%s", pair.Pixel)
	}
	if strings.Contains(pair.Vertex, "precision") {
		t.Errorf("precision in vertex stage:\n%s", pair.Vertex)
	}
}

func TestFailedTempRegistersNothing(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	body := mustNode(t, &g, varNode{glbuild.Float4, "absent"})
	tmp := mustNode(t, &g, tempNode{t: glbuild.Float4, name: "shared", body: body})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": tmp})
	ctx, err := glbuild.NewContext(vs, ps, glbuild.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	pair, err := ctx.Generate(posMaterial())
	if err != nil {
		t.Fatal(err)
	}
	vals, funcs := ctx.Temps(glbuild.StagePixel)
	if vals.Len() != 0 || funcs.Len() != 0 {
		t.Errorf("failed body registered temporaries: %v %v", vals.Names(), funcs.Names())
	}
	if strings.Contains(pair.Pixel, "shared") {
		t.Errorf("failed temporary emitted:\n%s", pair.Pixel)
	}
}

func TestFunctionTemp(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	body := mustNode(t, &g, varNode{glbuild.Float4, "tint"})
	fn := mustNode(t, &g, tempNode{t: glbuild.Float4, name: "tintFn", body: body, kind: glbuild.TempFunc})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": fn})
	m := posMaterial()
	m.vars[glbuild.StagePixel] = []glbuild.Var{{Name: "tint", Type: glbuild.Float4, Kind: glbuild.Uniform}}
	pair := mustGenerate(t, vs, ps, glbuild.DefaultConfig(), m)
	if !strings.Contains(pair.Pixel, "vec4 tintFn() { return tint; }\n") {
		t.Errorf("missing function temporary:\n%s", pair.Pixel)
	}
	if !strings.Contains(pair.Pixel, "fragColor = tintFn();") {
		t.Errorf("function temporary not called:\n%s", pair.Pixel)
	}
	if !strings.Contains(pair.Pixel, "uniform vec4 tint;") {
		t.Errorf("uniform read by function temporary not declared:\n%s", pair.Pixel)
	}
}

func TestBuildErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		want error
		// setup returns the pixel root. Context is given for direct registration.
		setup func(g *glbuild.Graph) glbuild.Handle
		pre   func(ctx *glbuild.Context)
	}{
		{
			name: "duplicate temp distinct bodies",
			want: glbuild.ErrDuplicateTemp,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				b1, _ := g.Add(literalNode{glbuild.Float, "1.0"})
				b2, _ := g.Add(literalNode{glbuild.Float, "2.0"})
				t1, _ := g.Add(tempNode{t: glbuild.Float, name: "x", body: b1})
				t2, _ := g.Add(tempNode{t: glbuild.Float, name: "x", body: b2})
				h, _ := g.Add(addNode{t1, t2})
				return h
			},
		},
		{
			name: "unknown temp",
			want: glbuild.ErrUnknownTemp,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(useTempNode{glbuild.Float, "nowhere"})
				return h
			},
		},
		{
			name: "type mismatch",
			want: glbuild.ErrTypeMismatch,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(varNode{glbuild.Float3, "tint"})
				return h
			},
		},
		{
			name: "cycle",
			want: glbuild.ErrTempCycle,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(literalNode{glbuild.Float4, "vec4(1.0)"})
				return h
			},
			pre: func(ctx *glbuild.Context) {
				ctx.AddTempVal(glbuild.StagePixel, glbuild.Float, "ca", "cb * 2.0")
				ctx.AddTempVal(glbuild.StagePixel, glbuild.Float, "cb", "ca + 1.0")
			},
		},
		{
			name: "function references value",
			want: glbuild.ErrTempScope,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(literalNode{glbuild.Float4, "vec4(1.0)"})
				return h
			},
			pre: func(ctx *glbuild.Context) {
				ctx.AddTempVal(glbuild.StagePixel, glbuild.Float, "v", "1.0")
				ctx.AddTempFunc(glbuild.StagePixel, glbuild.Float, "f", "v * 2.0")
			},
		},
		{
			name: "temp named as output",
			want: glbuild.ErrDuplicateTemp,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				body, _ := g.Add(varNode{glbuild.Float4, "tint"})
				h, _ := g.Add(tempNode{t: glbuild.Float4, name: "fragColor", body: body})
				return h
			},
		},
		{
			name: "function temp named as output",
			want: glbuild.ErrDuplicateTemp,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				body, _ := g.Add(varNode{glbuild.Float4, "tint"})
				h, _ := g.Add(tempNode{t: glbuild.Float4, name: "fragColor", body: body, kind: glbuild.TempFunc})
				return h
			},
		},
		{
			name: "context temp named as output",
			want: glbuild.ErrDuplicateTemp,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(varNode{glbuild.Float4, "tint"})
				return h
			},
			pre: func(ctx *glbuild.Context) {
				ctx.AddTempVal(glbuild.StagePixel, glbuild.Float4, "fragColor", "vec4(0.0)")
			},
		},
		{
			name: "sampler output",
			want: glbuild.ErrTypeMismatch,
			setup: func(g *glbuild.Graph) glbuild.Handle {
				h, _ := g.Add(varNode{glbuild.Sampler2D, "tex"})
				return h
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			var g glbuild.Graph
			pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
			root := test.setup(&g)
			vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
			ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": root})
			ctx, err := glbuild.NewContext(vs, ps, glbuild.DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			if test.pre != nil {
				test.pre(ctx)
			}
			m := posMaterial()
			m.vars[glbuild.StagePixel] = []glbuild.Var{
				{Name: "tint", Type: glbuild.Float4, Kind: glbuild.Uniform},
				{Name: "tex", Type: glbuild.Sampler2D, Kind: glbuild.Uniform},
			}
			_, err = ctx.Generate(m)
			if !errors.Is(err, test.want) {
				t.Errorf("want %v, got %v", test.want, err)
			}
		})
	}
}

func TestInvalidInputName(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	tint := mustNode(t, &g, literalNode{glbuild.Float4, "vec4(1.0)"})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragColor": tint})
	for _, stage := range []glbuild.Stage{glbuild.StageVertex, glbuild.StagePixel} {
		ctx, err := glbuild.NewContext(vs, ps, glbuild.DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		m := posMaterial()
		m.vars[stage] = append(m.vars[stage], glbuild.Var{Name: "1bad", Type: glbuild.Float, Kind: glbuild.Uniform})
		_, err = ctx.Generate(m)
		if err == nil || !strings.Contains(err.Error(), `"1bad"`) {
			t.Errorf("%s stage: want invalid name error, got %v", stage, err)
		}
	}
}

func TestDuplicateTempAcrossKinds(t *testing.T) {
	var g glbuild.Graph
	h := mustNode(t, &g, literalNode{glbuild.Float4, "vec4(0.0)"})
	def := mustDef(t, &g, map[string]glbuild.Handle{"position": h})
	ctx, err := glbuild.NewContext(def, def, glbuild.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	err = ctx.AddTempVal(glbuild.StageVertex, glbuild.Float, "x", "1.0")
	if err != nil {
		t.Fatal(err)
	}
	err = ctx.AddTempFunc(glbuild.StageVertex, glbuild.Float, "x", "2.0")
	if !errors.Is(err, glbuild.ErrDuplicateTemp) {
		t.Errorf("want duplicate error, got %v", err)
	}
	// Stages hold separate temporaries.
	err = ctx.AddTempVal(glbuild.StagePixel, glbuild.Float, "x", "1.0")
	if err != nil {
		t.Error(err)
	}
}

func TestContextReused(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	def := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ctx, err := glbuild.NewContext(def, mustDef(t, &g, nil), glbuild.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, err = ctx.Generate(posMaterial())
	if err != nil {
		t.Fatal(err)
	}
	_, err = ctx.Generate(posMaterial())
	if !errors.Is(err, glbuild.ErrContextReused) {
		t.Errorf("want reuse error, got %v", err)
	}
}

func TestFunctionDeduplication(t *testing.T) {
	var g glbuild.Graph
	pos := mustNode(t, &g, varNode{glbuild.Float4, "aPos"})
	f1 := mustNode(t, &g, funcNode{glsllib.Attenuation(), "vec3(1.0), vec3(1.0, 0.0, 0.0)"})
	f2 := mustNode(t, &g, funcNode{glsllib.Attenuation(), "vec3(2.0), vec3(1.0, 0.0, 0.0)"})
	sum := mustNode(t, &g, addNode{f1, f2})
	vs := mustDef(t, &g, map[string]glbuild.Handle{"position": pos})
	ps := mustDef(t, &g, map[string]glbuild.Handle{"fragAtten": sum})
	pair := mustGenerate(t, vs, ps, glbuild.DefaultConfig(), posMaterial())
	if n := strings.Count(pair.Pixel, "float gshadeAtten("); n != 1 {
		t.Errorf("want one declaration, got %d:\n%s", n, pair.Pixel)
	}
	if strings.Contains(pair.Vertex, "gshadeAtten") {
		t.Errorf("library function leaked into vertex stage:\n%s", pair.Vertex)
	}

	conflict, err := glbuild.MakeShaderFunction([]byte("float gshadeAtten(vec3 a, vec3 b) { return 0.0; }"))
	if err != nil {
		t.Fatal(err)
	}
	f3 := mustNode(t, &g, funcNode{conflict, "vec3(1.0), vec3(1.0)"})
	bad := mustNode(t, &g, addNode{f1, f3})
	ps = mustDef(t, &g, map[string]glbuild.Handle{"fragAtten": bad})
	ctx, _ := glbuild.NewContext(vs, ps, glbuild.DefaultConfig())
	_, err = ctx.Generate(posMaterial())
	if err == nil || !strings.Contains(err.Error(), "duplicate function name") {
		t.Errorf("want duplicate function error, got %v", err)
	}
}

func TestGraphRejectsForwardReference(t *testing.T) {
	var g glbuild.Graph
	_, err := g.Add(addNode{0, 1})
	if !errors.Is(err, glbuild.ErrBadHandle) {
		t.Errorf("want bad handle error, got %v", err)
	}
	_, err = glbuild.NewShaderDef(&g, map[string]glbuild.Handle{"c": 3})
	if !errors.Is(err, glbuild.ErrBadHandle) {
		t.Errorf("want bad handle error, got %v", err)
	}
}

func TestFormatGraph(t *testing.T) {
	var g glbuild.Graph
	a := mustNode(t, &g, varNode{glbuild.Float, "a"})
	b := mustNode(t, &g, literalNode{glbuild.Float, "1.0"})
	sum := mustNode(t, &g, addNode{a, b})
	got := glbuild.FormatGraph(&g, sum)
	if got != "addNode(varNode,literalNode)" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestForEachNode(t *testing.T) {
	var g glbuild.Graph
	a := mustNode(t, &g, varNode{glbuild.Float4, "a"})
	b := mustNode(t, &g, literalNode{glbuild.Float4, "vec4(1.0)"})
	mustNode(t, &g, literalNode{glbuild.Float4, "vec4(0.0)"}) // Unreachable.
	sum := mustNode(t, &g, addNode{a, b})
	twice := mustNode(t, &g, addNode{sum, a})
	sd := mustDef(t, &g, map[string]glbuild.Handle{"x": twice, "y": sum})
	var got []glbuild.Handle
	err := sd.ForEachNode(func(h glbuild.Handle, n glbuild.Node) error {
		got = append(got, h)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []glbuild.Handle{a, b, sum, twice}
	if !slices.Equal(got, want) {
		t.Errorf("want visit order %v, got %v", want, got)
	}

	errStop := errors.New("stop")
	calls := 0
	err = sd.ForEachNode(func(glbuild.Handle, glbuild.Node) error {
		calls++
		return errStop
	})
	if !errors.Is(err, errStop) || calls != 1 {
		t.Errorf("want stop after first node, got %v after %d calls", err, calls)
	}
}

func TestAppendLiterals(t *testing.T) {
	for _, test := range []struct {
		got  []byte
		want string
	}{
		{glbuild.AppendFloatLiteral(nil, 1), "1.0"},
		{glbuild.AppendFloatLiteral(nil, -0.25), "-0.25"},
		{glbuild.AppendFloatLiteral(nil, 16), "16.0"},
		{glbuild.AppendFloatLiteral(nil, 0.1), "0.1"},
		{glbuild.AppendVec3Literal(nil, ms3.Vec{X: 1, Y: 0.5, Z: -2}), "vec3(1.0, 0.5, -2.0)"},
		{glbuild.AppendVec4Literal(nil, [4]float32{0, 0, 0, 1}), "vec4(0.0, 0.0, 0.0, 1.0)"},
	} {
		if string(test.got) != test.want {
			t.Errorf("want %q, got %q", test.want, test.got)
		}
	}
}

type testMaterial struct {
	vars  map[glbuild.Stage][]glbuild.Var
	ivars map[string]int
}

func (m *testMaterial) Inputs(stage glbuild.Stage) []glbuild.Var { return m.vars[stage] }

func (m *testMaterial) IVar(name string) (int, bool) {
	v, ok := m.ivars[name]
	return v, ok
}

func posMaterial() *testMaterial {
	return &testMaterial{vars: map[glbuild.Stage][]glbuild.Var{
		glbuild.StageVertex: {{Name: "aPos", Type: glbuild.Float4, Kind: glbuild.Attribute}},
	}}
}

type varNode struct {
	t    glbuild.VarType
	name string
}

func (n varNode) Type() glbuild.VarType                        { return n.t }
func (n varNode) ForEachChild(func(glbuild.Handle) error) error { return nil }
func (n varNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	if !s.UseVar(n.t, n.name) {
		return dst, false
	}
	return append(dst, n.name...), true
}

type literalNode struct {
	t    glbuild.VarType
	text string
}

func (n literalNode) Type() glbuild.VarType                        { return n.t }
func (n literalNode) ForEachChild(func(glbuild.Handle) error) error { return nil }
func (n literalNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	return append(dst, n.text...), true
}

type addNode struct{ a, b glbuild.Handle }

func (n addNode) Type() glbuild.VarType { return glbuild.Float4 }
func (n addNode) ForEachChild(fn func(glbuild.Handle) error) error {
	if err := fn(n.a); err != nil {
		return err
	}
	return fn(n.b)
}
func (n addNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	dst = append(dst, '(')
	dst, ok := s.Expr(dst, n.a)
	if !ok {
		return dst, false
	}
	dst = append(dst, " + "...)
	dst, ok = s.Expr(dst, n.b)
	if !ok {
		return dst, false
	}
	return append(dst, ')'), true
}

type tempNode struct {
	t    glbuild.VarType
	name string
	body glbuild.Handle
	kind glbuild.TempKind
}

func (n tempNode) Type() glbuild.VarType                           { return n.t }
func (n tempNode) ForEachChild(fn func(glbuild.Handle) error) error { return fn(n.body) }
func (n tempNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	return s.AppendTemp(dst, n.kind, n.t, n.name, n.body)
}

type useTempNode struct {
	t    glbuild.VarType
	name string
}

func (n useTempNode) Type() glbuild.VarType                        { return n.t }
func (n useTempNode) ForEachChild(func(glbuild.Handle) error) error { return nil }
func (n useTempNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	return s.UseTemp(dst, n.name), true
}

type funcNode struct {
	obj  glbuild.ShaderObject
	args string
}

func (n funcNode) Type() glbuild.VarType                        { return glbuild.Float }
func (n funcNode) ForEachChild(func(glbuild.Handle) error) error { return nil }
func (n funcNode) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	s.UseFunction(n.obj)
	dst = append(dst, n.obj.NamePtr...)
	dst = append(dst, '(')
	dst = append(dst, n.args...)
	return append(dst, ')'), true
}

func mustAdd(t *testing.T, tm *glbuild.TempMap, name, body string) {
	t.Helper()
	err := tm.Add(name, glbuild.TempInfo{Type: glbuild.Float, Body: body})
	if err != nil {
		t.Fatal(err)
	}
}

func mustNode(t *testing.T, g *glbuild.Graph, n glbuild.Node) glbuild.Handle {
	t.Helper()
	h, err := g.Add(n)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func mustDef(t *testing.T, g *glbuild.Graph, def map[string]glbuild.Handle) *glbuild.ShaderDef {
	t.Helper()
	sd, err := glbuild.NewShaderDef(g, def)
	if err != nil {
		t.Fatal(err)
	}
	return sd
}

func mustGenerate(t *testing.T, vs, ps *glbuild.ShaderDef, cfg glbuild.Config, m glbuild.Material) *glbuild.ShaderPair {
	t.Helper()
	ctx, err := glbuild.NewContext(vs, ps, cfg)
	if err != nil {
		t.Fatal(err)
	}
	pair, err := ctx.Generate(m)
	if err != nil {
		t.Fatal(err)
	}
	return pair
}
