// Package domain models congestion events ("jams") and reference street
// segments ("sections") for the attribution engine.
//
// # Data Sources
//
// Jams originate from a municipal traffic feed (Waze CCP-style). Each report
// carries a unique event id, a start/end time window, street metadata, and an
// ordered polyline of geographic points encoded as {"x": lon, "y": lat}
// pairs. The polyline is a noisy GPS trace: positions wobble by several
// meters and may drift onto adjacent carriageways.
//
// Sections come from the city's GIS street cadastre. Each section is a fixed
// segment of a named street described by three characteristic planar points
// (start, middle, end) in UTM meters, plus the segment length. A street is
// the set of sections sharing a street name.
//
// # Direction Conventions
//
// Travel direction for a polyline is derived from net displacement between
// its first and last points only; intermediate points never influence it.
// Latitude sense is North when delta-y >= 0, longitude sense is East when
// delta-x >= 0, and the major axis is North/South when |delta-y| strictly
// exceeds |delta-x| (a tie falls to East/West).
//
// Orientation for sections and streets has no travel sense. It is derived
// from bounding-box extents: North/South when the box is at least as tall as
// it is wide. Street-level orientation uses the aggregate box of every
// section sharing the street name; section-level orientation uses the
// section's own box. The two may legitimately differ on curving streets, and
// the matcher accepts either against a jam's major axis.
//
// # Output Facts
//
// A JamPerSection row attributes one jam to one section. The relation is
// append-only with no uniqueness constraint: a jam crossing an intersection
// produces one row per matched section, and a jam rejected by every tier
// produces none.
package domain
