// Package domain models before–after satellite damage assessment for a
// circular area of interest (AOI).
//
// # Sensors and composites
//
// Two sensors feed the analysis:
//
//	optical — Sentinel-2 L2A surface reflectance. Acquisitions with excessive
//	          cloud cover are filtered out by the backend adapter.
//	radar   — Sentinel-1 GRD, VV polarisation, IW mode, descending orbit.
//	          Cloud-penetrating, so it remains usable during active events.
//
// A Composite is one aggregated observation of the AOI for a sensor over a
// time window. When the window contains zero qualifying acquisitions the
// composite is absent (nil), which is a first-class state, not an error.
//
// # Indices
//
// Index layers are derived per pixel and reduced to an AOI mean by the
// backend. The calculator's only job is naming the input bands:
//
//	ndvi    (B08 − B04) / (B08 + B04)   vegetation health proxy
//	ndwi    (B03 − B08) / (B03 + B08)   surface water / moisture proxy
//	sar_vv  VV backscatter, dB           surface roughness / structure proxy
//
// # Change and classification
//
// A ChangeRecord holds the before and after AOI means for one index and the
// delta (after − before). The delta exists only when both operands exist; an
// absent delta propagates and is never read as zero.
//
// Classification walks an ordered threshold rule table per event type:
//
//	Flood:    Δsar_vv ≤ −3.0 dB        → "Open water flooding detected"       High
//	          Δsar_vv ≥ +1.0 dB        → "Flooded standing crops detected"    High
//	          Δndwi   ≥ +0.15          → "Surface water / waterlogging detected" Medium
//	          otherwise                → "No strong flood signal detected"    Low
//	Drought:  Δndvi undefined          → insufficient-data outcome            Low
//	          Δndvi ≤ −0.2             → "Drought stress detected"            High
//	          Δndvi ≤ −0.1             → "Early vegetation stress"            Medium
//	          otherwise                → "No drought signal detected"         Low
//	Cyclone:  |Δsar_vv| ≥ 2.0 ∧ Δndvi ≤ −0.2 → "Cyclone-related crop damage likely" High
//	          Δndvi ≤ −0.15            → "Vegetation damage possible"         Medium
//	          otherwise                → "No strong cyclone damage detected"  Low
//
// Rule order is significant: radar evidence outranks the optical water index
// for floods because it is authoritative under cloud. A rule that references
// an undefined delta is skipped, never evaluated against zero. Explanations
// interpolate only deltas that were actually defined.
//
// # Assessment IDs
//
// Assessment IDs are deterministic SHA-256 hashes of the request fields
// (event type, coordinates, radius, both windows). Re-running an identical
// request yields the same ID, enabling idempotent handling downstream.
// See [AnalysisRequest.ID].
package domain
