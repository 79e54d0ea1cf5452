// Package lammps generates LAMMPS task files for a reproducibility case and
// reads back the files a LAMMPS run leaves in its working directory.
//
// A task is a control deck (DeckFile) plus a data file (DataFile). The run
// writes a per-atom dump (DumpFile) and three precision-scaled scalar files
// (PEFile, TotalAtomicEnergyFile, StressFile).
//
// LAMMPS stores triclinic boxes as a lower-triangular prism. WriteData
// rotates such cells into that form and returns the Prism so callers can
// map engine output back to the structure's frame.
package lammps
