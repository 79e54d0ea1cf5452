package lammps

// Names of the files in an engine working directory.
const (
	DeckFile              = "test_repro.in"
	DataFile              = "structure.data"
	DumpFile              = "output.dump"
	PEFile                = "pe.dat"
	TotalAtomicEnergyFile = "totalatomicenergy.dat"
	StressFile            = "stress.dat"
)

// DefaultPairStyle is the pair style that loads a deployed model.
const DefaultPairStyle = "nequip"
