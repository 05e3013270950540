package kiln

// Fixture is the contract every test type satisfies. Run is the user test
// body: no arguments, no results, failure conveyed only through recorded
// expectations. The unexported method forces fixtures to embed Case, which
// is how an instance learns which Descriptor it was constructed for.
type Fixture interface {
	Run()
	bind(*Descriptor)
}

// Case is the base every fixture embeds, either directly or through a shared
// suite base that itself embeds Case. It carries the Descriptor binding so a
// body can name its own suite and test in diagnostics.
type Case struct {
	desc *Descriptor
}

func (c *Case) bind(d *Descriptor) { c.desc = d }

// Descriptor returns the test this instance is running as. Valid from SetUp
// through TearDown.
func (c *Case) Descriptor() *Descriptor { return c.desc }

// Suite is shorthand for Descriptor().Suite().
func (c *Case) Suite() string { return c.desc.Suite() }

// Name is shorthand for Descriptor().Name().
func (c *Case) Name() string { return c.desc.Name() }

// Fixtures may declare optional lifecycle hooks, discovered by type
// assertion. SetUp runs before the body. TearDown runs after it, including
// when the body early-returned on a fatal check or panicked; it is skipped
// only when SetUp itself panicked, since a fixture that never finished
// setting up has nothing coherent to tear down.

type setUpper interface{ SetUp() }

type tearDowner interface{ TearDown() }
