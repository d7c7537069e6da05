package types

import "testing"

func TestInternDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.List(in.Builtins.Int)
	b := in.List(in.Builtins.Int)
	if a != b {
		t.Errorf("identical list types got distinct IDs: %d, %d", a, b)
	}
	c := in.List(in.Builtins.Str)
	if a == c {
		t.Errorf("list[int] and list[str] share an ID")
	}
	if in.Dict(in.Builtins.Str, in.Builtins.Int) != in.Dict(in.Builtins.Str, in.Builtins.Int) {
		t.Errorf("identical dict types got distinct IDs")
	}
}

func TestUnionNormalization(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	// Order and nesting do not matter.
	u1 := in.Union(b.Int, b.None)
	u2 := in.Union(b.None, b.Int)
	if u1 != u2 {
		t.Errorf("union member order changed identity")
	}
	u3 := in.Union(b.Int, in.Union(b.None, b.Int))
	if u3 != u1 {
		t.Errorf("nested union not flattened")
	}

	if got := in.Union(b.Int); got != b.Int {
		t.Errorf("single-member union = %s", in.String(got))
	}
	if got := in.Union(b.Int, b.Any); got != b.Any {
		t.Errorf("Any must absorb the union, got %s", in.String(got))
	}
	if got := in.Union(b.Never, b.Int); got != b.Int {
		t.Errorf("Never must vanish from unions, got %s", in.String(got))
	}
	if got := in.Union(); got != b.Never {
		t.Errorf("empty union = %s, want Never", in.String(got))
	}
}

func TestOptionalAndNonNone(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	opt := in.Optional(b.Str)
	if !in.ContainsNone(opt) {
		t.Errorf("Optional(str) must contain None")
	}
	if in.NonNone(opt) != b.Str {
		t.Errorf("NonNone(str | None) = %s", in.String(in.NonNone(opt)))
	}
	if in.NonNone(b.None) != b.Never {
		t.Errorf("NonNone(None) = %s", in.String(in.NonNone(b.None)))
	}
	if in.NonNone(b.Int) != b.Int {
		t.Errorf("NonNone(int) changed the type")
	}

	// Optional is idempotent through union normalization.
	if in.Optional(opt) != opt {
		t.Errorf("Optional(Optional(str)) != Optional(str)")
	}
}

func TestTwoPhaseClassRegistration(t *testing.T) {
	in := NewInterner()
	node := in.RegisterClass("Node")
	if in.KindOf(node) != KindClass {
		t.Fatalf("KindOf = %v", in.KindOf(node))
	}

	// The placeholder can appear in its own body before DefineClass.
	next := in.Optional(node)
	info := in.DefineClass(node, nil)
	if info == nil {
		t.Fatalf("DefineClass returned nil")
	}
	info.Fields["next"] = next
	info.FieldOrder = append(info.FieldOrder, "next")

	got, ok := in.FieldOn(node, "next")
	if !ok || got != next {
		t.Errorf("FieldOn(next) = %s, %v", in.String(got), ok)
	}
	if !info.Defined {
		t.Errorf("Defined not set")
	}
	// Nominal identity: a second class with the same name is distinct.
	if other := in.RegisterClass("Node"); other == node {
		t.Errorf("two registrations share a TypeID")
	}
}

func TestAssignable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	cases := []struct {
		name string
		from TypeID
		to   TypeID
		want bool
	}{
		{"reflexive", b.Int, b.Int, true},
		{"no numeric coercion", b.Int, b.Float, false},
		{"never to anything", b.Never, b.Str, true},
		{"anything to Any", b.Bool, b.Any, true},
		{"Any to anything", b.Any, b.Bool, true},
		{"error both ways", b.Error, b.Int, true},
		{"into union member", b.Int, in.Optional(b.Int), true},
		{"union into narrower", in.Optional(b.Int), b.Int, false},
		{"union into wider union", in.Union(b.Int, b.Str), in.Union(b.Int, b.Str, b.None), true},
		{"none into optional", b.None, in.Optional(b.Str), true},
		{"list invariant", in.List(b.Int), in.List(b.Float), false},
		{"list same elem", in.List(b.Int), in.List(b.Int), true},
		{"tuple elementwise", in.Tuple([]TypeID{b.Int, b.Str}), in.Tuple([]TypeID{b.Int, b.Str}), true},
		{"tuple arity", in.Tuple([]TypeID{b.Int}), in.Tuple([]TypeID{b.Int, b.Int}), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := in.Assignable(c.from, c.to); got != c.want {
				t.Errorf("Assignable(%s, %s) = %v, want %v",
					in.String(c.from), in.String(c.to), got, c.want)
			}
		})
	}
}

func TestAssignableClassChain(t *testing.T) {
	in := NewInterner()
	animal := in.RegisterClass("Animal")
	in.DefineClass(animal, nil)
	dog := in.RegisterClass("Dog")
	in.DefineClass(dog, []TypeID{animal})
	pug := in.RegisterClass("Pug")
	in.DefineClass(pug, []TypeID{dog})

	if !in.Assignable(pug, animal) {
		t.Errorf("Pug must be assignable to Animal through Dog")
	}
	if in.Assignable(animal, dog) {
		t.Errorf("Animal must not be assignable to Dog")
	}
}

func TestDefineClassDropsCyclicBases(t *testing.T) {
	in := NewInterner()
	a := in.RegisterClass("A")
	b := in.RegisterClass("B")
	in.DefineClass(a, []TypeID{b})
	in.DefineClass(b, []TypeID{a})

	if got := in.ClassOf(b).Bases; len(got) != 0 {
		t.Fatalf("back edge kept: %v", got)
	}
	if !in.CyclicBase(b, a) {
		t.Errorf("CyclicBase(B, A) = false after A(B)")
	}
	if in.CyclicBase(a, b) {
		t.Errorf("CyclicBase(A, B) = true with the back edge dropped")
	}
	if !in.CyclicBase(a, a) {
		t.Errorf("CyclicBase(A, A) = false")
	}

	// Both directions terminate; A's own declared base survives.
	other := in.RegisterClass("C")
	in.DefineClass(other, nil)
	if in.Assignable(a, other) {
		t.Errorf("A assignable to unrelated C")
	}
	if !in.Assignable(a, b) {
		t.Errorf("dropping the back edge must not break A(B)")
	}
	if in.Assignable(b, a) {
		t.Errorf("B assignable to A with the back edge dropped")
	}
}

func TestBaseChainLookupTerminatesOnCycle(t *testing.T) {
	in := NewInterner()
	a := in.RegisterClass("A")
	b := in.RegisterClass("B")
	ainfo := in.DefineClass(a, []TypeID{b})
	in.DefineClass(b, nil)
	// Close the cycle behind DefineClass's back; every chain walk must
	// still terminate.
	in.ClassOf(b).Bases = []TypeID{a}
	ainfo.Methods["ping"] = in.Function(nil, in.Builtins.None)

	if _, ok := in.MethodOn(b, "ping"); !ok {
		t.Errorf("method through base chain not found")
	}
	if _, ok := in.FieldOn(a, "missing"); ok {
		t.Errorf("unexpected field on cyclic chain")
	}
	c := in.RegisterClass("C")
	in.DefineClass(c, nil)
	if in.Assignable(a, c) {
		t.Errorf("A assignable to unrelated C")
	}
}

func TestFunctionVariance(t *testing.T) {
	in := NewInterner()
	b := in.Builtins
	animal := in.RegisterClass("Animal")
	in.DefineClass(animal, nil)
	dog := in.RegisterClass("Dog")
	in.DefineClass(dog, []TypeID{animal})

	takesAnimal := in.Function([]Param{{Name: "a", Type: animal}}, b.Bool)
	takesDog := in.Function([]Param{{Name: "d", Type: dog}}, b.Bool)

	// Contravariant parameters: a function of Animal serves where a
	// function of Dog is expected, not the other way round.
	if !in.Assignable(takesAnimal, takesDog) {
		t.Errorf("(Animal) -> bool must convert to (Dog) -> bool")
	}
	if in.Assignable(takesDog, takesAnimal) {
		t.Errorf("(Dog) -> bool must not convert to (Animal) -> bool")
	}

	returnsDog := in.Function(nil, dog)
	returnsAnimal := in.Function(nil, animal)
	if !in.Assignable(returnsDog, returnsAnimal) {
		t.Errorf("() -> Dog must convert to () -> Animal")
	}
}

func TestProtocolConformance(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	drawable := in.RegisterProtocol("Drawable")
	pinfo := in.DefineProtocol(drawable)
	pinfo.Methods["draw"] = in.Function(nil, b.None)
	pinfo.MethodOrder = append(pinfo.MethodOrder, "draw")

	circle := in.RegisterClass("Circle")
	cinfo := in.DefineClass(circle, nil)
	cinfo.Methods["draw"] = in.Function(nil, b.None)

	if err := in.Conforms(circle, drawable); err != nil {
		t.Errorf("Circle must conform to Drawable, got %+v", err)
	}
	if !in.Assignable(circle, drawable) {
		t.Errorf("Assignable must honor structural conformance")
	}

	blob := in.RegisterClass("Blob")
	in.DefineClass(blob, nil)
	err := in.Conforms(blob, drawable)
	if err == nil || err.Method != "draw" {
		t.Errorf("Blob conformance error = %+v, want missing draw", err)
	}

	liar := in.RegisterClass("Liar")
	linfo := in.DefineClass(liar, nil)
	linfo.Methods["draw"] = in.Function(nil, b.Int)
	err = in.Conforms(liar, drawable)
	if err == nil || !err.Got.IsValid() {
		t.Errorf("Liar conformance error = %+v, want signature mismatch", err)
	}
}

func TestMethodOn(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	m, ok := in.MethodOn(in.List(b.Int), "append")
	if !ok {
		t.Fatalf("list.append missing")
	}
	d := in.Get(m)
	if d.Kind != KindFunction || len(d.Params) != 1 || d.Params[0].Type != b.Int {
		t.Errorf("append type = %s", in.String(m))
	}

	m, ok = in.MethodOn(in.Dict(b.Str, b.Int), "get")
	if !ok {
		t.Fatalf("dict.get missing")
	}
	if in.Get(m).Result != in.Optional(b.Int) {
		t.Errorf("dict.get result = %s", in.String(in.Get(m).Result))
	}

	if _, ok := in.MethodOn(b.Str, "upper"); !ok {
		t.Errorf("str.upper missing")
	}
	if _, ok := in.MethodOn(b.Int, "upper"); ok {
		t.Errorf("int must not have upper")
	}

	// Method inheritance through the base chain.
	base := in.RegisterClass("Base")
	binfo := in.DefineClass(base, nil)
	binfo.Methods["speak"] = in.Function(nil, b.Str)
	derived := in.RegisterClass("Derived")
	in.DefineClass(derived, []TypeID{base})
	if _, ok := in.MethodOn(derived, "speak"); !ok {
		t.Errorf("inherited method not found")
	}
}

func TestStringRendering(t *testing.T) {
	in := NewInterner()
	b := in.Builtins

	cases := []struct {
		id   TypeID
		want string
	}{
		{in.List(b.Int), "list[int]"},
		{in.Dict(b.Str, b.Int), "dict[str, int]"},
		{in.Tuple([]TypeID{b.Int, b.Str}), "tuple[int, str]"},
		{in.Optional(b.Str), "str | None"},
		{in.Function([]Param{{Name: "r", Type: b.Float}}, b.Float), "(float) -> float"},
		{NoTypeID, "<invalid>"},
	}
	for _, c := range cases {
		if got := in.String(c.id); got != c.want {
			t.Errorf("String = %q, want %q", got, c.want)
		}
	}
}
