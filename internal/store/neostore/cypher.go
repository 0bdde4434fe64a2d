package neostore

// The ON CREATE block seeds a fresh reputation record; it mirrors the
// lazy-creation behaviour of the other backends.
const reputationDefaults = `
ON CREATE SET
	u.reputationScore = 0.0,
	u.verificationLevel = 'basic',
	u.specializations = [],
	u.totalRecommendations = 0,
	u.upvotesReceived = 0,
	u.downvotesReceived = 0,
	u.followers = 0,
	u.following = 0,
	u.activeSince = $now,
	u.tokenRewardsEarned = 0.0
`

const reputationReturn = `
RETURN
	u.userId AS userId,
	u.reputationScore AS reputationScore,
	u.verificationLevel AS verificationLevel,
	u.specializations AS specializations,
	u.totalRecommendations AS totalRecommendations,
	u.upvotesReceived AS upvotesReceived,
	u.downvotesReceived AS downvotesReceived,
	u.followers AS followers,
	u.following AS following,
	u.activeSince AS activeSince,
	u.tokenRewardsEarned AS tokenRewardsEarned
`

const getReputationCypher = `
MATCH (u:User {userId: $userId})
` + reputationReturn

const ensureReputationCypher = `
MERGE (u:User {userId: $userId})
` + reputationDefaults + reputationReturn

const updateSpecializationsCypher = `
MERGE (u:User {userId: $userId})
` + reputationDefaults + `
SET u.specializations = $specializations
` + reputationReturn

const applyActivityCypher = `
MERGE (u:User {userId: $userId})
` + reputationDefaults + `
SET
	u.upvotesReceived = u.upvotesReceived + $upvotes,
	u.downvotesReceived = u.downvotesReceived + $downvotes,
	u.totalRecommendations = u.totalRecommendations + $recommendations
` + reputationReturn

const setDerivedCypher = `
MATCH (u:User {userId: $userId})
SET u.reputationScore = $score, u.verificationLevel = $level
RETURN u.userId AS userId
`

// The WHERE filter drops the row when the edge already exists, so a
// duplicate follow creates nothing and returns no record.
const createEdgeCypher = `
MERGE (a:User {userId: $followerId})
ON CREATE SET
	a.reputationScore = 0.0, a.verificationLevel = 'basic', a.specializations = [],
	a.totalRecommendations = 0, a.upvotesReceived = 0, a.downvotesReceived = 0,
	a.followers = 0, a.following = 0, a.activeSince = $now, a.tokenRewardsEarned = 0.0
MERGE (b:User {userId: $followedId})
ON CREATE SET
	b.reputationScore = 0.0, b.verificationLevel = 'basic', b.specializations = [],
	b.totalRecommendations = 0, b.upvotesReceived = 0, b.downvotesReceived = 0,
	b.followers = 0, b.following = 0, b.activeSince = $now, b.tokenRewardsEarned = 0.0
WITH a, b
OPTIONAL MATCH (a)-[existing:FOLLOWS]->(b)
WITH a, b, existing
WHERE existing IS NULL
CREATE (a)-[f:FOLLOWS {
	relationshipId: $relationshipId,
	trustWeight: $trustWeight,
	createdAt: $createdAt
}]->(b)
SET a.following = a.following + 1, b.followers = b.followers + 1
RETURN f.relationshipId AS relationshipId
`

const deleteEdgeCypher = `
MATCH (a:User {userId: $followerId})-[f:FOLLOWS]->(b:User {userId: $followedId})
DELETE f
SET a.following = a.following - 1, b.followers = b.followers - 1
RETURN a.following AS following, b.followers AS followers
`

const getEdgeCypher = `
MATCH (a:User {userId: $followerId})-[f:FOLLOWS]->(b:User {userId: $followedId})
RETURN
	f.relationshipId AS relationshipId,
	a.userId AS followerId,
	b.userId AS followedId,
	f.trustWeight AS trustWeight,
	f.createdAt AS createdAt
`

const twoHopPathCypher = `
MATCH (a:User {userId: $sourceId})-[:FOLLOWS]->(m:User)-[:FOLLOWS]->(b:User {userId: $targetId})
WHERE m.userId <> $sourceId AND m.userId <> $targetId
RETURN m.userId AS intermediateId
LIMIT 1
`

const listByFollowerCypher = `
MATCH (a:User {userId: $userId})-[f:FOLLOWS]->(b:User)
WITH a, f, b
ORDER BY f.createdAt ASC, b.userId ASC
SKIP $skip LIMIT $limit
RETURN
	f.relationshipId AS relationshipId,
	a.userId AS followerId,
	b.userId AS followedId,
	f.trustWeight AS trustWeight,
	f.createdAt AS createdAt
`

const countByFollowerCypher = `
MATCH (:User {userId: $userId})-[f:FOLLOWS]->(:User)
RETURN count(f) AS total
`

const listByFollowedCypher = `
MATCH (a:User)-[f:FOLLOWS]->(b:User {userId: $userId})
WITH a, f, b
ORDER BY f.createdAt ASC, a.userId ASC
SKIP $skip LIMIT $limit
RETURN
	f.relationshipId AS relationshipId,
	a.userId AS followerId,
	b.userId AS followedId,
	f.trustWeight AS trustWeight,
	f.createdAt AS createdAt
`

const countByFollowedCypher = `
MATCH (:User)-[f:FOLLOWS]->(:User {userId: $userId})
RETURN count(f) AS total
`
