// Package lagmap computes lag maps for a circular membrane read by two sensors.
//
// A lag map holds, for every integer cell of a square grid centred on the
// membrane, the difference in arrival time (rounded to whole samples) between
// sensor A and sensor B for a vibration starting at that cell. Cells outside
// the membrane, widened by a tolerance, hold NaN.
//
// Units follow a fixed chain. Diameter and tolerance are given in centimetres
// and multiplied by Scale to obtain grid cells (Scale=10 gives millimetre
// cells). Sensor positions are already in grid cells. The speed of sound is
// given in metres per second and rescaled internally to cells per second as
// c*Scale*100.
//
// Inputs are not validated: negative diameters or scales produce whatever
// grid the arithmetic yields, which may be empty.
package lagmap
