// Package schema loads the typetree definitions used to decode behaviour
// objects. The file is a JSON object keyed by script name whose values are
// flat node lists in UnityPy's export shape (m_Level, m_Type, m_Name,
// m_MetaFlag); other node keys are ignored.
package schema
