package driver

const (
	SaveRunQuery = `
		CREATE (r:Run {uuid: $uuid})
		SET r.created_at = $created_at,
			r.semantic = $semantic,
			r.ontology1 = $ontology1,
			r.ontology2 = $ontology2,
			r.alignment = $alignment,
			r.reference = $reference,
			r.precision = $precision,
			r.recall = $recall,
			r.duration_ms = $duration_ms
		RETURN r.uuid AS uuid
	`

	// SaveCorrespondencesQuery stores one alignment of a run. Entities are
	// keyed by IRI and ontology, so the same IRI on both sides stays two nodes.
	SaveCorrespondencesQuery = `
		MATCH (r:Run {uuid: $run_uuid})
		UNWIND $cells AS cell
		MERGE (a:Entity {iri: cell.entity1, ontology: $ontology1})
		MERGE (b:Entity {iri: cell.entity2, ontology: $ontology2})
		CREATE (a)-[e:CORRESPONDS {run_uuid: $run_uuid, kind: $kind}]->(b)
		SET e.relation = cell.relation,
			e.measure = cell.measure,
			e.seq = cell.seq
		RETURN count(e) AS saved
	`

	GetRunQuery = `
		MATCH (r:Run {uuid: $uuid})
		RETURN r.uuid AS uuid, r.created_at AS created_at, r.semantic AS semantic,
			r.ontology1 AS ontology1, r.ontology2 AS ontology2,
			r.alignment AS alignment, r.reference AS reference,
			r.precision AS precision, r.recall AS recall, r.duration_ms AS duration_ms
	`

	ListRunsQuery = `
		MATCH (r:Run)
		RETURN r.uuid AS uuid, r.created_at AS created_at, r.semantic AS semantic,
			r.ontology1 AS ontology1, r.ontology2 AS ontology2,
			r.alignment AS alignment, r.reference AS reference,
			r.precision AS precision, r.recall AS recall, r.duration_ms AS duration_ms
		ORDER BY r.created_at DESC
		LIMIT $limit
	`

	GetCorrespondencesQuery = `
		MATCH (a:Entity)-[e:CORRESPONDS {run_uuid: $run_uuid, kind: $kind}]->(b:Entity)
		RETURN a.iri AS entity1, b.iri AS entity2, e.relation AS relation, e.measure AS measure
		ORDER BY e.seq
	`

	DeleteRunQuery = `
		MATCH (r:Run {uuid: $uuid})
		OPTIONAL MATCH ()-[e:CORRESPONDS {run_uuid: $uuid}]->()
		DELETE e
		WITH DISTINCT r
		DELETE r
		RETURN count(*) AS deleted
	`

	// DeleteOrphanEntitiesQuery removes entities no run refers to anymore.
	DeleteOrphanEntitiesQuery = `
		MATCH (n:Entity)
		WHERE NOT (n)--()
		DELETE n
	`
)
