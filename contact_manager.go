package feather2d

import "github.com/akmonengine/feather2d/actor"

// ContactManager creates and destroys contacts as the broad-phase reports pairs, and
// keeps them in the world contact list
type ContactManager struct {
	world        *World
	contactList  *Contact
	contactCount int
}

// PairAdded is called by the broad-phase when two fat AABBs start overlapping.
// It returns nil when the pair must not collide.
func (cm *ContactManager) PairAdded(shapeA, shapeB *Shape) *Contact {
	bodyA := shapeA.body
	bodyB := shapeB.body

	if bodyA == bodyB {
		return nil
	}
	if bodyA.IsStatic() && bodyB.IsStatic() {
		return nil
	}
	if cm.world.ContactFilter != nil && !cm.world.ContactFilter.ShouldCollide(shapeA, shapeB) {
		return nil
	}
	if bodyA.IsConnected(bodyB) {
		return nil
	}
	if ok, _ := actor.CanCollide(shapeA.Type(), shapeB.Type()); !ok {
		return nil
	}

	c := newContact(shapeA, shapeB)
	bodyA = c.shapeA.body
	bodyB = c.shapeB.body

	// World list
	c.next = cm.contactList
	if cm.contactList != nil {
		cm.contactList.prev = c
	}
	cm.contactList = c

	// Contact graph
	c.nodeA.Contact = c
	c.nodeA.Other = bodyB
	c.nodeA.next = bodyA.contactList
	if bodyA.contactList != nil {
		bodyA.contactList.prev = &c.nodeA
	}
	bodyA.contactList = &c.nodeA

	c.nodeB.Contact = c
	c.nodeB.Other = bodyA
	c.nodeB.next = bodyB.contactList
	if bodyB.contactList != nil {
		bodyB.contactList.prev = &c.nodeB
	}
	bodyB.contactList = &c.nodeB

	cm.contactCount++

	return c
}

// PairRemoved is called by the broad-phase when two fat AABBs stop overlapping
func (cm *ContactManager) PairRemoved(shapeA, shapeB *Shape, contact *Contact) {
	if contact == nil {
		return
	}
	cm.Destroy(contact)
}

// Destroy unlinks the contact. A touching contact wakes both bodies, since whatever
// held them may be gone.
func (cm *ContactManager) Destroy(c *Contact) {
	w := cm.world
	bodyA := c.shapeA.body
	bodyB := c.shapeB.body

	c.removeAll(w.ContactListener)
	if c.touching {
		w.Events.recordExit(c)
		bodyA.WakeUp()
		bodyB.WakeUp()
	}

	// World list
	if c.prev != nil {
		c.prev.next = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	if c == cm.contactList {
		cm.contactList = c.next
	}

	// Contact graph
	unlinkContactEdge(&bodyA.contactList, &c.nodeA)
	unlinkContactEdge(&bodyB.contactList, &c.nodeB)

	c.prev = nil
	c.next = nil
	cm.contactCount--
}

func unlinkContactEdge(head **ContactEdge, edge *ContactEdge) {
	if edge.prev != nil {
		edge.prev.next = edge.next
	}
	if edge.next != nil {
		edge.next.prev = edge.prev
	}
	if edge == *head {
		*head = edge.next
	}
	edge.prev = nil
	edge.next = nil
}

// Collide refreshes the manifold of every contact with at least one awake body
func (cm *ContactManager) Collide() {
	w := cm.world
	for c := cm.contactList; c != nil; c = c.next {
		if !c.shapeA.body.isAwake() && !c.shapeB.body.isAwake() {
			continue
		}

		wasTouching := c.touching
		c.update(w.ContactListener)
		w.Events.recordContact(c, wasTouching)
	}
}
